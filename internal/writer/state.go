package writer

// State is the lifecycle phase of a Writer.
type State int32

const (
	// Starting: the goroutine has been launched but has not attached to the queue.
	Starting State = iota
	// Running: applying messages while the queue is open.
	Running
	// Draining: the queue is closed; applying what was admitted before close.
	Draining
	// Stopped is terminal.
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
