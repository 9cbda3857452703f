package domain

// DeployState defines the observable mode of the deployment lifecycle.
type DeployState string

const (
	StateReady     DeployState = "ready"     // Idle, a deployment may start
	StateLoading   DeployState = "loading"   // A deployment is in flight
	StatePaused    DeployState = "paused"    // Operator asked to pause, waiting for a decision
	StateCancelled DeployState = "cancelled" // Operator declined to continue, settling
)

// String implements fmt.Stringer.
func (s DeployState) String() string {
	return string(s)
}

// Busy reports whether a deployment currently owns the state.
func (s DeployState) Busy() bool {
	return s != StateReady
}

// RequestType identifies an operator request sent to a running deployment.
type RequestType string

const (
	RequestPause  RequestType = "pause"
	RequestResume RequestType = "resume"
	RequestCancel RequestType = "cancel"
)

// Request is an operator intent. It is consumed by the running deployment
// between suspension points; it never mutates state directly.
type Request struct {
	Type   RequestType
	Source string // e.g. "signal", "http", "mcp"
}
