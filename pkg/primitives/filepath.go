package primitives

import (
	"hash/fnv"
	"os"
	"path/filepath"
)

// Filepath is a type-safe wrapper around file paths used throughout the
// storage engine. A heap file's TableID is derived from its absolute path,
// so the same physical file always resolves to the same table id across
// process restarts.
type Filepath string

// Hash generates a deterministic TableID from the file's absolute path
// using FNV-1a. Relative paths are resolved first so that the id is stable
// regardless of the working directory a caller registers the file from.
func (f Filepath) Hash() TableID {
	abs, err := filepath.Abs(string(f))
	if err != nil {
		abs = string(f)
	}

	h := fnv.New64a()
	h.Write([]byte(abs))
	return TableID(h.Sum64())
}

// String converts the Filepath to a standard string.
func (f Filepath) String() string {
	return string(f)
}

// Exists checks whether the file exists on the filesystem.
func (f Filepath) Exists() bool {
	_, err := os.Stat(string(f))
	return err == nil
}

// IsEmpty checks whether the filepath is an empty string.
func (f Filepath) IsEmpty() bool {
	return string(f) == ""
}
