package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/raoulx24/dir-archiver/internal/fs"
)

const manifestDateLayout = "2006-01-02 15:04:05"

// Manifest lists every file of a snapshot in traversal order.
type Manifest struct {
	Created time.Time
	Entries []Entry
	Total   int64
}

// NewManifest sizes each file under root. A file whose size cannot be read is
// recorded with size 0 instead of failing the manifest.
func NewManifest(fsys fs.FS, root string, files []string, created time.Time) *Manifest {
	m := &Manifest{
		Created: created,
		Entries: make([]Entry, 0, len(files)),
	}
	for _, rel := range files {
		var size int64
		if st, err := fsys.Stat(filepath.Join(root, rel)); err == nil {
			size = st.Size
		}
		m.Entries = append(m.Entries, Entry{Path: filepath.ToSlash(rel), Size: size})
		m.Total += size
	}
	return m
}

// Text renders the manifest in its human-readable on-disk form.
func (m *Manifest) Text() string {
	var b strings.Builder
	b.WriteString("Backup Manifest\n")
	b.WriteString("===============\n")
	fmt.Fprintf(&b, "Backup Date: %s\n", m.Created.Format(manifestDateLayout))
	b.WriteString("Files Backed Up:\n\n")
	for _, e := range m.Entries {
		fmt.Fprintf(&b, "%-50s %10d bytes\n", e.Path, e.Size)
	}
	fmt.Fprintf(&b, "\nTotal Size: %d bytes\n", m.Total)
	return b.String()
}

// BuildManifest writes the manifest for files (relative to root) to root/backup_manifest.txt
// through the atomic write path and returns it.
func BuildManifest(fsys fs.FS, root string, files []string, created time.Time) (*Manifest, error) {
	m := NewManifest(fsys, root, files, created)
	if err := fsys.WriteFile(filepath.Join(root, ManifestName), []byte(m.Text())); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	return m, nil
}
