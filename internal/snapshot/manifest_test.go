package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/dir-archiver/internal/fs"
)

func TestBuildManifest_TotalsAndFormat(t *testing.T) {
	root := t.TempDir()
	files := map[string]int{
		"data/products.csv": 100,
		"data/sales.csv":    50,
		"bills/b1.csv":      50,
	}
	for rel, n := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(strings.Repeat("x", n)), 0o644))
	}
	order := []string{"data/products.csv", "data/sales.csv", "bills/b1.csv"}
	created := time.Date(2026, 10, 17, 10, 0, 0, 0, time.Local)

	m, err := BuildManifest(fs.New(), root, order, created)
	require.NoError(t, err)

	require.Len(t, m.Entries, 3)
	var sum int64
	for i, e := range m.Entries {
		assert.Equal(t, order[i], e.Path)
		sum += e.Size
	}
	assert.Equal(t, sum, m.Total)
	assert.EqualValues(t, 200, m.Total)

	data, err := os.ReadFile(filepath.Join(root, ManifestName))
	require.NoError(t, err)
	text := string(data)
	assert.Equal(t, m.Text(), text)
	assert.True(t, strings.HasPrefix(text, "Backup Manifest\n===============\nBackup Date: 2026-10-17 10:00:00\n"))
	assert.Contains(t, text, "data/products.csv"+strings.Repeat(" ", 50-len("data/products.csv"))+"        100 bytes\n")
	assert.True(t, strings.HasSuffix(text, "\nTotal Size: 200 bytes\n"))
}

func TestNewManifest_MissingFileCountsZero(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.csv"), []byte("12345"), 0o644))

	m := NewManifest(fs.New(), root, []string{"a.csv", "vanished.csv"}, time.Now())

	require.Len(t, m.Entries, 2)
	assert.EqualValues(t, 0, m.Entries[1].Size)
	assert.EqualValues(t, 5, m.Total)
}

func TestBuildManifest_Empty(t *testing.T) {
	m, err := BuildManifest(fs.New(), t.TempDir(), nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, m.Entries)
	assert.Zero(t, m.Total)
}
