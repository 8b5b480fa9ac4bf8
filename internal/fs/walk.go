package fs

import (
	"os"
	"path/filepath"
)

// Visitor receives the entries of a tree walk. Paths are relative to the walk root.
// Returning an error stops the walk and Walk returns it.
type Visitor interface {
	Dir(rel string, info os.FileInfo) error
	File(rel string, info os.FileInfo) error
}

// VisitorFuncs adapts plain functions to a Visitor. Nil funcs are no-ops.
type VisitorFuncs struct {
	OnDir  func(rel string, info os.FileInfo) error
	OnFile func(rel string, info os.FileInfo) error
}

func (v VisitorFuncs) Dir(rel string, info os.FileInfo) error {
	if v.OnDir == nil {
		return nil
	}
	return v.OnDir(rel, info)
}

func (v VisitorFuncs) File(rel string, info os.FileInfo) error {
	if v.OnFile == nil {
		return nil
	}
	return v.OnFile(rel, info)
}

// Walk visits root depth-first in lexical order, which keeps manifests stable.
// The root itself is not visited. Symbolic links, sockets, devices and pipes are skipped.
func Walk(root string, v Visitor) error {
	st, err := os.Stat(root)
	if err != nil {
		return wrap("stat", root, err)
	}
	if !st.IsDir() {
		return wrap("walk", root, os.ErrInvalid)
	}
	return walkDir(root, "", v)
}

func walkDir(root, rel string, v Visitor) error {
	dir := filepath.Join(root, rel)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return wrap("readdir", dir, err)
	}

	for _, ent := range entries {
		mode := ent.Type()
		if mode&os.ModeSymlink != 0 || (!ent.IsDir() && !mode.IsRegular()) {
			continue
		}

		childRel := filepath.Join(rel, ent.Name())
		info, err := ent.Info()
		if err != nil {
			return wrap("stat", filepath.Join(root, childRel), err)
		}

		if ent.IsDir() {
			if err := v.Dir(childRel, info); err != nil {
				return err
			}
			if err := walkDir(root, childRel, v); err != nil {
				return err
			}
			continue
		}

		if err := v.File(childRel, info); err != nil {
			return err
		}
	}
	return nil
}

// ListFiles returns the relative path of every regular file under root in walk order.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := Walk(root, VisitorFuncs{
		OnFile: func(rel string, _ os.FileInfo) error {
			files = append(files, rel)
			return nil
		},
	})
	return files, err
}
