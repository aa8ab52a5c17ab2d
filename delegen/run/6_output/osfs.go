package output

import "os"

// OSFileSystem is the real file system.
type OSFileSystem struct{}

// MkdirAll wraps os.MkdirAll.
func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// ReadDir wraps os.ReadDir.
func (OSFileSystem) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }

// ReadFile wraps os.ReadFile.
func (OSFileSystem) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// Stat wraps os.Stat.
func (OSFileSystem) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// WriteFile wraps os.WriteFile.
func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}
