package ports

import (
	"context"

	"github.com/aretw0/deploykit/pkg/domain"
)

// ChainClient is the network capability the controller drives.
// Implementations return *domain.ChainError for failures reported by the chain
// and plain wrapped errors for transport failures.
type ChainClient interface {
	// SubmitCode sends the deployment transaction for code and returns its id.
	// An empty id with a nil error means the node accepted the request but
	// produced no transaction.
	SubmitCode(ctx context.Context, code []byte) (string, error)

	// TransactionStatus fetches the current record of a transaction.
	TransactionStatus(ctx context.Context, txID string) (domain.TransactionRecord, error)

	// ProposalStatus fetches the current record of a governance proposal.
	ProposalStatus(ctx context.Context, proposalID string) (domain.ProposalRecord, error)

	// RequestFaucet asks the test faucet to fund address and returns its message.
	RequestFaucet(ctx context.Context, address string) (string, error)

	// Balance returns the native token balance of address in base units.
	Balance(ctx context.Context, address string) (int64, error)
}

// Signer is the external wallet capability. The core never holds keys.
type Signer interface {
	// Address returns the wallet address deployments are sent from.
	Address() string

	// SignDeployment builds and signs the deployment transaction for code,
	// returning the raw transaction ready to broadcast.
	SignDeployment(ctx context.Context, code []byte) (string, error)
}

// ArtifactSource yields the binary produced by the build step.
type ArtifactSource interface {
	// CompiledProgram returns the program bytes, or nil when nothing has been built.
	CompiledProgram(ctx context.Context) ([]byte, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	// Confirm blocks until the operator answers or ctx is done.
	// defaultYes is the answer used for an empty reply.
	Confirm(ctx context.Context, prompt string, defaultYes bool) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string, defaultYes bool) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string, defaultYes bool) (bool, error) {
	return f(ctx, prompt, defaultYes)
}
