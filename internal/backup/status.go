package backup

import (
	"fmt"
	"time"
)

// State is the position of a Manager in its lifecycle.
type State int

const (
	Disabled State = iota
	Scheduled
	Running
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is the outcome of the most recent run.
type Status struct {
	LastRun       time.Time // zero until the first run finishes
	Success       bool
	LastSnapshot  string
	SnapshotCount int
}

const statusTimeLayout = "2006-01-02 15:04:05"

// String renders the status the way operators have always read it.
func (s Status) String() string {
	if s.LastRun.IsZero() {
		return "No backup performed yet"
	}
	outcome := "Failed"
	if s.Success {
		outcome = "Success"
	}
	return fmt.Sprintf("Last backup: %s (%s)", s.LastRun.Format(statusTimeLayout), outcome)
}
