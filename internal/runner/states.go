package runner

import "time"

// State is the interface all runner states implement. Transitions are
// methods on the concrete state types, so the compiler rejects paths the
// machine does not allow.
type State interface {
	Name() string
}

// StateRecorder tracks state transitions for testing.
type StateRecorder struct {
	path []string
}

func NewStateRecorder() *StateRecorder {
	return &StateRecorder{path: make([]string, 0)}
}

func (r *StateRecorder) Record(state State) {
	r.path = append(r.path, state.Name())
}

func (r *StateRecorder) Path() []string {
	return r.path
}

// RunTiming holds phase boundaries, stored separately from the states.
type RunTiming struct {
	CreatedAt   time.Time
	ConnectedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}
