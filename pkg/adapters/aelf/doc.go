/*
Package aelf implements ports.ChainClient against an aelf node's HTTP API and
the aelf explorer.

Transactions are signed by an injected ports.Signer; this package only broadcasts
the raw transaction and reads results back. Transaction logs are decoded by a
LogDecoder into plain field maps so the deployment core never sees protobuf.
*/
package aelf
