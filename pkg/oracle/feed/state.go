package feed

// State is the lifecycle state of a feed.
type State int32

const (
	// StateUninitialized is the state before Initialize succeeds.
	StateUninitialized State = iota
	// StatePolling means the polling loop is running.
	StatePolling
	// StateDestroyed is terminal.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePolling:
		return "polling"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
