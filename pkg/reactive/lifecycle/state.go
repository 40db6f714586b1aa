package lifecycle

// State is the position of a stream instance in its lifecycle.
//
//	Idle → Emitting → {Completed | Failed}
//	Idle | Emitting → Disposed
//
// Completed, Failed and Disposed are terminal.
type State int32

const (
	// Idle is the state of a subscription whose source has not started.
	Idle State = iota
	// Emitting means the source is running and elements may be delivered.
	Emitting
	// Completed means the source finished after delivering all elements.
	Completed
	// Failed means a failure signal was delivered.
	Failed
	// Disposed means the subscriber tore the subscription down.
	Disposed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Emitting:
		return "emitting"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further signal may be delivered.
func (s State) IsTerminal() bool {
	return s >= Completed
}
