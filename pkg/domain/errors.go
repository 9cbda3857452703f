package domain

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the operator declines to continue a paused deployment.
var ErrCancelled = errors.New("deployment cancelled")

// ErrNotRunning is returned when a pause, resume or cancel request has no deployment to act on.
var ErrNotRunning = errors.New("no deployment in progress")

// Kind is the stable, user-facing failure category.
type Kind string

const (
	KindNotBuilt           Kind = "NotBuilt"
	KindDeploymentRejected Kind = "DeploymentRejected"
	KindTransactionFailed  Kind = "TransactionFailed"
	KindProposalNotFound   Kind = "ProposalNotFound"
	KindProposalExpired    Kind = "ProposalExpired"
	KindTransport          Kind = "Transport"
	KindCancelled          Kind = "Cancelled"
	// KindTimeout is only produced when a client-side wait budget is configured.
	KindTimeout Kind = "Timeout"
)

// Error classifies a failure raised inside the deployment pipeline.
// It never leaves the core: the translator turns it into a Failure.
type Error struct {
	Kind          Kind
	TransactionID string
	ProposalID    string
	Err           error
}

// NewError wraps err with a failure kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf creates a classified error from a format string.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WithTransaction attaches the transaction id the failure refers to.
func (e *Error) WithTransaction(id string) *Error {
	e.TransactionID = id
	return e
}

// WithProposal attaches the proposal id the failure refers to.
func (e *Error) WithProposal(id string) *Error {
	e.ProposalID = id
	return e
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// ChainError is the failure payload produced by a chain client.
type ChainError struct {
	Code     string // chain or HTTP status code, may be empty
	Category string // e.g. "validation", "transport", "not_found"
	Message  string
	Raw      []byte // undecoded response body
}

// ChainError categories.
const (
	CategoryTransport  = "transport"
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryRejected   = "rejected"
)

func (e *ChainError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("chain error %s (%s): %s", e.Code, e.Category, e.Message)
	}
	return fmt.Sprintf("chain error (%s): %s", e.Category, e.Message)
}

// Failure is the only error shape that crosses the core boundary.
// It holds no reference to the raw error it was translated from.
type Failure struct {
	Kind          Kind   `json:"kind"`
	Reason        string `json:"reason"`
	TransactionID string `json:"transaction_id,omitempty"`
	// Display combines the reason with the transaction reference for the operator.
	Display string `json:"display"`
}

func (f *Failure) Error() string {
	return f.Display
}
