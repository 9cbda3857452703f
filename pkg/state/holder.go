package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/deploykit/pkg/domain"
)

var (
	// ErrIllegalTransition is returned for an edge outside the lifecycle graph.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrUnexpectedState is returned when the holder is not in the expected source state.
	ErrUnexpectedState = errors.New("unexpected current state")
)

var allowed = map[domain.DeployState][]domain.DeployState{
	domain.StateReady:     {domain.StateLoading},
	domain.StateLoading:   {domain.StatePaused, domain.StateReady},
	domain.StatePaused:    {domain.StateLoading, domain.StateCancelled, domain.StateReady},
	domain.StateCancelled: {domain.StateReady},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to domain.DeployState) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Edge is one allowed transition.
type Edge struct {
	From, To domain.DeployState
}

// Edges lists the lifecycle graph in a stable order.
func Edges() []Edge {
	var out []Edge
	for _, from := range []domain.DeployState{domain.StateReady, domain.StateLoading, domain.StatePaused, domain.StateCancelled} {
		for _, to := range allowed[from] {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// Snapshot is a point-in-time view of the holder.
type Snapshot struct {
	State    domain.DeployState `json:"state"`
	Progress float64            `json:"progress"`
}

// Change describes one accepted write. Progress-only writes have From == To.
type Change struct {
	From     domain.DeployState
	To       domain.DeployState
	Progress float64
}

// Transitioned reports whether the change moved the state.
func (c Change) Transitioned() bool {
	return c.From != c.To
}

// Observer is called synchronously for every change. It must not write to the holder.
type Observer func(Change)

// Holder is a mutex-protected deployment state plus progress.
type Holder struct {
	// notify serialises writers across the update and the observer fan-out,
	// so observers see changes in the order they were applied.
	notify sync.Mutex

	mu        sync.RWMutex
	state     domain.DeployState
	progress  float64
	observers map[int]Observer
	nextObs   int
	subs      map[chan Snapshot]struct{}
}

// New returns a holder in the ready state with zero progress.
func New() *Holder {
	return &Holder{
		state:     domain.StateReady,
		observers: make(map[int]Observer),
		subs:      make(map[chan Snapshot]struct{}),
	}
}

// State returns the current state.
func (h *Holder) State() domain.DeployState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Progress returns the current progress in [0, 1].
func (h *Holder) Progress() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.progress
}

// Snapshot returns state and progress read atomically.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Snapshot{State: h.state, Progress: h.progress}
}

// Transition moves the holder from -> to. It fails without side effects when the
// edge is not allowed or the holder is not currently in from.
func (h *Holder) Transition(from, to domain.DeployState) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return h.write(func() (Change, bool, error) {
		if h.state != from {
			return Change{}, false, fmt.Errorf("%w: want %s, have %s", ErrUnexpectedState, from, h.state)
		}
		h.state = to
		return Change{From: from, To: to, Progress: h.progress}, true, nil
	})
}

// SetProgress raises the progress while a deployment is in flight. Values lower
// than the current progress, and writes while ready or cancelled, are ignored.
func (h *Holder) SetProgress(p float64) {
	_ = h.write(func() (Change, bool, error) {
		if h.state != domain.StateLoading && h.state != domain.StatePaused {
			return Change{}, false, nil
		}
		p = clamp(p)
		if p <= h.progress {
			return Change{}, false, nil
		}
		h.progress = p
		return Change{From: h.state, To: h.state, Progress: p}, true, nil
	})
}

// Settle returns the holder from the given state to ready and resets progress to 0.
func (h *Holder) Settle(from domain.DeployState) error {
	if !CanTransition(from, domain.StateReady) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, domain.StateReady)
	}
	return h.write(func() (Change, bool, error) {
		if h.state != from {
			return Change{}, false, fmt.Errorf("%w: want %s, have %s", ErrUnexpectedState, from, h.state)
		}
		h.state = domain.StateReady
		h.progress = 0
		return Change{From: from, To: domain.StateReady, Progress: 0}, true, nil
	})
}

func (h *Holder) write(apply func() (Change, bool, error)) error {
	h.notify.Lock()
	defer h.notify.Unlock()

	h.mu.Lock()
	change, changed, err := apply()
	if err != nil || !changed {
		h.mu.Unlock()
		return err
	}
	observers := make([]Observer, 0, len(h.observers))
	for i := 0; i < h.nextObs; i++ {
		if obs, ok := h.observers[i]; ok {
			observers = append(observers, obs)
		}
	}
	snap := Snapshot{State: change.To, Progress: change.Progress}
	for ch := range h.subs {
		select {
		case ch <- snap:
		default:
			// slow subscriber
		}
	}
	h.mu.Unlock()

	for _, obs := range observers {
		obs(change)
	}
	return nil
}

// Observe registers fn for every subsequent change and returns a function that
// removes it. Observers run in registration order.
func (h *Holder) Observe(fn Observer) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextObs
	h.nextObs++
	h.observers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.observers, id)
	}
}

// Subscribe returns a buffered channel of snapshots and a cancel function that
// closes it. Snapshots are dropped when the buffer is full.
func (h *Holder) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Snapshot, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, ch)
			close(ch)
		})
	}
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
