/*
Package ports defines the driven ports (interfaces) the deployment core depends on.

These interfaces decouple the lifecycle logic from the chain, the operator and the
build pipeline, allowing the controller to run against a live aelf node, a scripted
in-memory chain or a test double.

# Key Interfaces

  - ChainClient: Submits programs and reads transaction and proposal records.
  - Confirmer: Asks the operator whether a paused deployment should continue.
  - ArtifactSource: Yields the compiled program produced by the external build step.
  - Signer: The external wallet capability that signs deployment transactions.
  - DistributedLocker: Keeps a single deployment per wallet across processes.
*/
package ports
