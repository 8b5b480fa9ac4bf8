package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig lays out a data directory and a config pointing at it, and
// returns the config path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "products.csv"), bytes.Repeat([]byte("x"), 100), 0o644))

	cfg := "sources: [" + data + "]\n" +
		"destination: {root: " + filepath.Join(dir, "backup") + "}\n" +
		"logging: {level: error, file: \"\"}\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunThenList(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := execute(t, "run", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(Success)")

	out, err = execute(t, "list", "-c", cfgPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "backup_"))
	// products.csv plus the manifest
	assert.Regexp(t, `\s2\s`, lines[1])
}

func TestStatus(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := execute(t, "status", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshots:     0")
	assert.Contains(t, out, "Auto backup:   disabled, every 24h")
	assert.NotContains(t, out, "Newest:")
}

func TestCleanup(t *testing.T) {
	cfgPath := writeTestConfig(t)
	root := filepath.Join(filepath.Dir(cfgPath), "backup")
	require.NoError(t, os.MkdirAll(root, 0o755))
	for i, name := range []string{"backup_2026-01-01_00-00-00", "backup_2026-01-02_00-00-00", "backup_2026-01-03_00-00-00"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.Mkdir(p, 0o755))
		mod := time.Date(2026, 1, i+1, 0, 0, 0, 0, time.Local)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}

	out, err := execute(t, "cleanup", "--keep", "1", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted backup_2026-01-01_00-00-00")
	assert.Contains(t, out, "deleted backup_2026-01-02_00-00-00")
	assert.DirExists(t, filepath.Join(root, "backup_2026-01-03_00-00-00"))

	_, err = execute(t, "cleanup", "--keep", "-1", "-c", cfgPath)
	assert.Error(t, err)
}

func TestRun_MissingConfig(t *testing.T) {
	_, err := execute(t, "run", "-c", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "24h", formatInterval(24*time.Hour))
	assert.Equal(t, "1h30m0s", formatInterval(90*time.Minute))
}
