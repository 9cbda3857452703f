package domain

// TxStatus is the coarse status of a submitted transaction.
type TxStatus string

const (
	TxPending TxStatus = "Pending"
	TxMined   TxStatus = "Mined"
	TxFailed  TxStatus = "Failed"
)

// ProposalStatus is the coarse status of a governance proposal.
type ProposalStatus string

const (
	ProposalActive  ProposalStatus = "Active"
	ProposalExpired ProposalStatus = "Expired"
	ProposalOther   ProposalStatus = "Other"
)

// Log is a single transaction log entry with its decoded fields.
// Fields is nil when the log could not be decoded.
type Log struct {
	Address string         `json:"address"`
	Name    string         `json:"name"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// BlockInfo locates the block that included a transaction.
type BlockInfo struct {
	Number int64  `json:"number"`
	Hash   string `json:"hash"`
}

// TransactionRecord is an immutable snapshot returned by a chain client.
type TransactionRecord struct {
	ID     string    `json:"id"`
	Status TxStatus  `json:"status"`
	Logs   []Log     `json:"logs,omitempty"`
	Block  BlockInfo `json:"block"`
	// Error holds the chain's failure text for failed transactions.
	Error string `json:"error,omitempty"`
}

// Final reports whether the transaction reached finality.
func (r TransactionRecord) Final() bool {
	return r.Status != TxPending
}

// ProposalRecord is an immutable snapshot of a governance proposal.
type ProposalRecord struct {
	ID               string         `json:"id"`
	Status           ProposalStatus `json:"status"`
	ContractAddress  string         `json:"contract_address,omitempty"`
	ContractDeployed bool           `json:"contract_deployed"`
}

// Settled reports whether the proposal can no longer change the deployment result.
func (r ProposalRecord) Settled() bool {
	return r.Status == ProposalExpired || r.ContractDeployed
}
