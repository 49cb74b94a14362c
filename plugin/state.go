package plugin

// State represents the lifecycle state of an attached plugin.
type State int

// Plugin states.
const (
	// StateAttached - plugin is attached but not initialized.
	StateAttached State = iota

	// StateInitialized - plugin is initialized but not active.
	StateInitialized

	// StateActive - plugin is active.
	StateActive

	// StateError - a lifecycle call failed; the plugin is out of rotation.
	StateError

	// StateDisposed - plugin has been disposed.
	StateDisposed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateInitialized:
		return "initialized"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// IsUsable returns true if the plugin participates in lifecycle fan-out.
func (s State) IsUsable() bool {
	return s == StateAttached || s == StateInitialized || s == StateActive
}
