package types

import (
	"io"
	"io/fs"
	"path/filepath"
)

// File is an open file handle. Archives need ReaderAt for random access to
// the zip central directory and Seeker to learn their size.
type File interface {
	io.Reader
	io.ReaderAt
	io.Writer
	io.Seeker
	io.Closer
	Stat() (fs.FileInfo, error)
}

// FS defines the filesystem operations nirvanamm needs for mod archives,
// the game tree and the origin snapshot.
type FS interface {
	// File operations
	Open(name string) (File, error)
	Create(name string) (File, error)
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
	Walk(root string, fn filepath.WalkFunc) error

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}
