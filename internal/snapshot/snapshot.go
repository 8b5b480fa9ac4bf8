// Package snapshot names snapshot directories and builds their manifests.
package snapshot

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// Prefix starts every snapshot directory name.
	Prefix = "backup_"
	// TimeLayout is the local-time, second-precision stamp in snapshot names.
	TimeLayout = "2006-01-02_15-04-05"
	// ManifestName is the manifest file written at the root of every snapshot.
	ManifestName = "backup_manifest.txt"
)

// backup_<stamp> with an optional .N suffix for runs landing in the same second.
var namePattern = regexp.MustCompile(`^backup_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})(?:\.(\d+))?$`)

// Info describes an existing snapshot directory.
type Info struct {
	Name    string
	Path    string
	Created time.Time // parsed from the name
	ModTime time.Time
}

// Name returns the directory name for a snapshot taken at t. A seq above zero
// disambiguates snapshots created within the same second.
func Name(t time.Time, seq int) string {
	name := Prefix + t.Format(TimeLayout)
	if seq > 0 {
		name += "." + strconv.Itoa(seq)
	}
	return name
}

// IsName reports whether name follows the snapshot naming convention.
func IsName(name string) bool {
	return namePattern.MatchString(name)
}

// ParseName extracts the creation time and sequence from a snapshot name.
func ParseName(name string) (time.Time, int, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, 0, fmt.Errorf("%q is not a snapshot name", name)
	}
	t, err := time.ParseInLocation(TimeLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parsing snapshot time: %w", err)
	}
	seq := 0
	if m[2] != "" {
		seq, _ = strconv.Atoi(m[2])
	}
	return t, seq, nil
}
