/*
Package session tracks in-flight deployments.

A Session is created when a deployment run starts and destroyed when it settles.
The Manager guarantees a single session per key (usually the wallet address)
within a process and, when a DistributedLocker is configured, across every
process sharing the same lock backend.
*/
package session
