package fs

import (
	"os"
	"path/filepath"

	"github.com/juju/utils/v4"
)

// WriteFileAtomic writes data to a temporary sibling of path and renames it over path.
// Parent directories are created as needed. On failure the temporary file is removed
// and path keeps its previous content, or stays absent.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrap("mkdir", dir, err)
	}
	if err := utils.AtomicWriteFile(path, data, 0o644); err != nil {
		return wrap("write", path, err)
	}
	return nil
}
