// Package filesys provides file system abstractions for nspick.
// It defines the small read-only interface the configuration readers need
// and an implementation that delegates to the standard library, making it
// easier to test code that interacts with the file system.
package filesys

import (
	"io/fs"
	"os"
)

// ReadFS is the tiny surface the configuration readers need.
// It is intentionally read-only because nspick never writes anything:
// it inspects resolver configuration, it does not manage it.
type ReadFS interface {
	Stat(string) (fs.FileInfo, error)
	Open(string) (*os.File, error)
	ReadDir(string) ([]os.DirEntry, error)
}

// OS returns a file system implementation that delegates to the standard
// library.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements ReadFS against the local disk.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)      { return os.Stat(p) }
func (OsFS) Open(p string) (*os.File, error)         { return os.Open(p) }
func (OsFS) ReadDir(p string) ([]os.DirEntry, error) { return os.ReadDir(p) }

var _ ReadFS = OsFS{}
