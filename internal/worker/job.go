package worker

import (
	"time"

	"github.com/raoulx24/dir-archiver/internal/snapshot"
)

// Job is one backup run request.
type Job struct {
	Trigger string // metrics.TriggerManual or metrics.TriggerScheduled
}

// Result describes a finished run. Name and Path are empty when no snapshot was published.
type Result struct {
	Name      string
	Path      string
	Started   time.Time
	Finished  time.Time
	Manifest  *snapshot.Manifest
	Skipped   []string // configured sources that did not exist
	Succeeded bool
}
