package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventStep        EventType = "step"
	EventPoll        EventType = "poll"
	EventSettle      EventType = "settle"
)

// Step names the pipeline stage an event belongs to.
type Step string

const (
	StepTransfer Step = "transfer"
	StepTxPoll   Step = "tx_poll"
	StepProposal Step = "proposal_poll"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StateEvent is emitted after every accepted transition.
type StateEvent struct {
	EventBase
	From     DeployState `json:"from"`
	To       DeployState `json:"to"`
	Progress float64     `json:"progress"`
}

// StepEvent marks the start or end of a pipeline stage.
type StepEvent struct {
	EventBase
	Step     Step          `json:"step"`
	Done     bool          `json:"done"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// PollEvent is emitted once per polling iteration.
type PollEvent struct {
	EventBase
	Step      Step   `json:"step"`
	Iteration int    `json:"iteration"`
	Status    string `json:"status"`
}

// LifecycleHooks defines callbacks for deployment observability.
type LifecycleHooks struct {
	OnStateChange func(context.Context, *StateEvent)
	OnStep        func(context.Context, *StepEvent)
	OnPoll        func(context.Context, *PollEvent)
	OnSettle      func(context.Context, *Outcome)
}
