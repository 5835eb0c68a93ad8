package gate

import "sync/atomic"

// OnceState is the lifecycle of a run-once effect.
type OnceState int32

const (
	NotStarted OnceState = iota
	InProgress
	Done
)

func (s OnceState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Once runs an effect at most once per mount. Unlike sync.Once, callers that lose
// the race return immediately instead of waiting for the winner.
type Once struct {
	state atomic.Int32
}

// Do runs fn if the effect has not started and reports whether it ran.
func (o *Once) Do(fn func()) bool {
	if !o.state.CompareAndSwap(int32(NotStarted), int32(InProgress)) {
		return false
	}
	defer o.state.Store(int32(Done))
	fn()
	return true
}

// State returns the current lifecycle state.
func (o *Once) State() OnceState { return OnceState(o.state.Load()) }
