/*
Package domain contains the core domain models of the deployment lifecycle.

It defines the deployment state machine values, the chain records the core reads,
the failure taxonomy and the requests an operator can send to a running deployment.
This package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - DeployState: The observable lifecycle value (ready, loading, paused, cancelled).
  - TransactionRecord / ProposalRecord: Immutable snapshots returned by a chain client.
  - Kind / Failure: The stable, user-facing failure taxonomy.
  - Request: Pause, resume and cancel requests consumed between suspension points.
  - Outcome: The settled result of one deployment run.
*/
package domain
