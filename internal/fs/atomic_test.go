package fs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWriteFileAtomic_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "products.csv")

	require.NoError(t, WriteFileAtomic(path, []byte("id,name\n1,tea\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,tea\n", string(got))
	assert.Equal(t, []string{"products.csv"}, dirNames(t, filepath.Dir(path)))
}

func TestWriteFileAtomic_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bills.csv")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0o600))

	require.NoError(t, WriteFileAtomic(path, []byte("new")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	if runtime.GOOS != "windows" {
		st, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), st.Mode().Perm())
	}
}

func TestWriteFileAtomic_RenameFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	// a non-empty directory cannot be replaced by a file
	path := filepath.Join(dir, "occupied")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	err := WriteFileAtomic(path, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "write", fe.Op)
	assert.Equal(t, []string{"occupied"}, dirNames(t, dir), "temp file must be cleaned up")
	assert.DirExists(t, filepath.Join(path, "child"))
}

func TestWriteFileAtomic_UnwritableDirKeepsPriorContent(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs POSIX permissions enforced")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("prior"), 0o644))

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := WriteFileAtomic(path, []byte("new"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "prior", string(got))
	assert.Equal(t, []string{"sales.csv"}, dirNames(t, dir))
}
