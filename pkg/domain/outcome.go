package domain

import "time"

// OutcomeStatus tells how a deployment run settled.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeCancelled OutcomeStatus = "cancelled"
	// OutcomeIgnored is returned when Run is called while another run owns the state.
	OutcomeIgnored OutcomeStatus = "ignored"
)

// Outcome is the settled result of a deployment run.
type Outcome struct {
	Status          OutcomeStatus `json:"status"`
	SessionID       string        `json:"session_id,omitempty"`
	TransactionID   string        `json:"tx_hash,omitempty"`
	ProposalID      string        `json:"proposal_id,omitempty"`
	ContractAddress string        `json:"contract_address,omitempty"`
	ExplorerURL     string        `json:"explorer_url,omitempty"`
	Elapsed         time.Duration `json:"elapsed"`
	Failure         *Failure      `json:"failure,omitempty"`
	// Message is the single terminal message for the operator.
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the contract was deployed.
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSucceeded
}
