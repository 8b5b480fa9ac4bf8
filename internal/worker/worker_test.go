package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/dir-archiver/internal/fs"
	"github.com/raoulx24/dir-archiver/internal/logging"
	"github.com/raoulx24/dir-archiver/internal/snapshot"
)

var now = time.Date(2026, 10, 17, 10, 0, 0, 0, time.Local)

func writeFile(t *testing.T, path string, n int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", n)), 0o644))
}

func fixture(t *testing.T) (Settings, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "products.csv"), 100)
	writeFile(t, filepath.Join(dir, "data", "sales.csv"), 50)
	writeFile(t, filepath.Join(dir, "bills", "b-0001.csv"), 50)
	root := filepath.Join(dir, "backup")
	return Settings{
		Sources: []string{filepath.Join(dir, "data"), filepath.Join(dir, "bills")},
		Root:    root,
		Workers: 2,
	}, root
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_PublishesSnapshotWithManifest(t *testing.T) {
	settings, root := fixture(t)
	w := New(settings, logging.Discard(), testclock.NewClock(now), nil)

	res, err := w.Run(context.Background(), Job{Trigger: "manual"})
	require.NoError(t, err)

	assert.True(t, res.Succeeded)
	assert.Equal(t, "backup_2026-10-17_10-00-00", res.Name)
	assert.Equal(t, []string{res.Name}, entries(t, root), "staging dir must be gone")

	assert.FileExists(t, filepath.Join(res.Path, "data", "products.csv"))
	assert.FileExists(t, filepath.Join(res.Path, "data", "sales.csv"))
	assert.FileExists(t, filepath.Join(res.Path, "bills", "b-0001.csv"))

	require.NotNil(t, res.Manifest)
	assert.Len(t, res.Manifest.Entries, 3)
	assert.EqualValues(t, 200, res.Manifest.Total)
	assert.Equal(t, "data/products.csv", res.Manifest.Entries[0].Path)

	text, err := os.ReadFile(filepath.Join(res.Path, snapshot.ManifestName))
	require.NoError(t, err)
	assert.Contains(t, string(text), "Total Size: 200 bytes")
}

func TestRun_SameSecondGetsSequence(t *testing.T) {
	settings, root := fixture(t)
	w := New(settings, logging.Discard(), testclock.NewClock(now), nil)

	first, err := w.Run(context.Background(), Job{})
	require.NoError(t, err)
	second, err := w.Run(context.Background(), Job{})
	require.NoError(t, err)

	assert.Equal(t, "backup_2026-10-17_10-00-00", first.Name)
	assert.Equal(t, "backup_2026-10-17_10-00-00.1", second.Name)
	assert.ElementsMatch(t, []string{first.Name, second.Name}, entries(t, root))
}

func TestRun_MissingSourceSkipped(t *testing.T) {
	settings, _ := fixture(t)
	missing := filepath.Join(t.TempDir(), "reports")
	settings.Sources = append(settings.Sources, missing)

	res, err := New(settings, logging.Discard(), testclock.NewClock(now), nil).Run(context.Background(), Job{})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, []string{missing}, res.Skipped)
	assert.Len(t, res.Manifest.Entries, 3)
}

// brokenCopyFS fails copies of one file name and records which sources were read.
type brokenCopyFS struct {
	*fs.OSFS
	fail string

	mu     sync.Mutex
	copied []string
}

func (b *brokenCopyFS) CopyFile(ctx context.Context, src, dst string) error {
	b.mu.Lock()
	b.copied = append(b.copied, filepath.Base(src))
	b.mu.Unlock()
	if filepath.Base(src) == b.fail {
		return &fs.Error{Op: "copy", Path: src, Err: errors.New("no space left on device")}
	}
	return b.OSFS.CopyFile(ctx, src, dst)
}

func TestRun_FailedSourceStillAttemptsOthers(t *testing.T) {
	settings, root := fixture(t)
	settings.Sources = []string{settings.Sources[1], settings.Sources[0]} // bills/ first
	settings.Workers = 1
	bfs := &brokenCopyFS{OSFS: fs.New(), fail: "b-0001.csv"}

	res, err := New(settings, logging.Discard(), testclock.NewClock(now), bfs).Run(context.Background(), Job{})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrIO)
	assert.False(t, res.Succeeded)
	assert.Empty(t, res.Name)

	assert.Contains(t, bfs.copied, "products.csv", "data/ must be attempted after bills/ failed")
	assert.Empty(t, entries(t, root), "failed run must not leave a snapshot or staging dir")
}

func TestRun_KeepFailedParksStaging(t *testing.T) {
	settings, root := fixture(t)
	settings.KeepFailed = true
	bfs := &brokenCopyFS{OSFS: fs.New(), fail: "sales.csv"}

	_, err := New(settings, logging.Discard(), testclock.NewClock(now), bfs).Run(context.Background(), Job{})
	require.Error(t, err)

	assert.Equal(t, []string{"backup_2026-10-17_10-00-00.failed"}, entries(t, root))
	assert.False(t, snapshot.IsName(entries(t, root)[0]))
}

func TestRun_SourceIsFile(t *testing.T) {
	settings, root := fixture(t)
	file := filepath.Join(t.TempDir(), "notadir")
	writeFile(t, file, 1)
	settings.Sources = []string{file}

	_, err := New(settings, logging.Discard(), testclock.NewClock(now), nil).Run(context.Background(), Job{})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrIO)
	assert.Empty(t, entries(t, root))
}

func TestUpdateConfig(t *testing.T) {
	settings, _ := fixture(t)
	w := New(settings, logging.Discard(), nil, nil)

	next := settings
	next.Root = filepath.Join(t.TempDir(), "elsewhere")
	w.UpdateConfig(next)

	assert.Equal(t, next.Root, w.Settings().Root)
}
