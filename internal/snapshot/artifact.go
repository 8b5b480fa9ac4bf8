package snapshot

// Entry is one manifest line: a file copied into a snapshot and its size.
// Path is relative to the snapshot root and uses forward slashes.
type Entry struct {
	Path string
	Size int64
}
