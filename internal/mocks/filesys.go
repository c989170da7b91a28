package mocks

import (
	"io/fs"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lc/nspick/internal/filesys"
)

var _ filesys.ReadFS = (*MockOsFS)(nil)

// MockOsFS is a mock implementation of the ReadFS interface.
// It is built with testify/mock and adheres to the methods defined on OsFS.
type MockOsFS struct {
	mock.Mock
}

// Stat mocks the Stat method.
func (m *MockOsFS) Stat(p string) (fs.FileInfo, error) {
	args := m.Called(p)
	// Need to handle potential nil interface return
	var fileInfo fs.FileInfo
	if args.Get(0) != nil {
		fileInfo = args.Get(0).(fs.FileInfo)
	}
	return fileInfo, args.Error(1)
}

// Open mocks the Open method.
func (m *MockOsFS) Open(p string) (*os.File, error) {
	args := m.Called(p)
	// Need to handle potential nil pointer return
	var file *os.File
	if args.Get(0) != nil {
		file = args.Get(0).(*os.File)
	}
	return file, args.Error(1)
}

// ReadDir mocks the ReadDir method.
func (m *MockOsFS) ReadDir(p string) ([]os.DirEntry, error) {
	args := m.Called(p)
	// Need to handle potential nil slice return
	var entries []os.DirEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]os.DirEntry)
	}
	return entries, args.Error(1)
}
