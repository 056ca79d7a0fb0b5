// Package diskmanager abstracts the file operations used to persist and load
// binary documents, so the file layer can be replaced by an in-memory one in
// tests.
package diskmanager

import (
	"os"
	"slices"
	"strings"
	"sync"
)

// FileHandle abstracts random-access file operations.
type FileHandle interface {
	// ReadAt reads len(b) bytes from the file starting at byte offset off.
	ReadAt(b []byte, off int64) (int, error)
	// WriteAt writes len(b) bytes to the file starting at byte offset off.
	WriteAt(b []byte, off int64) (int, error)
	// Truncate changes the size of the file.
	Truncate(size int64) error
	// Close closes the file handle, rendering it unusable for I/O.
	Close() error
	// Sync commits the current contents of the file to stable storage.
	Sync() error
	// Stat returns the file stat
	Stat() (os.FileInfo, error)
}

type fileHandle struct {
	file *os.File
}

// NewFileHandle wraps an *os.File into a FileHandle implementation.
func NewFileHandle(file *os.File) FileHandle { return &fileHandle{file: file} }

func (fh *fileHandle) ReadAt(b []byte, off int64) (int, error) { return fh.file.ReadAt(b, off) }

func (fh *fileHandle) WriteAt(b []byte, off int64) (int, error) { return fh.file.WriteAt(b, off) }

func (fh *fileHandle) Truncate(size int64) error { return fh.file.Truncate(size) }

func (fh *fileHandle) Close() error { return fh.file.Close() }

func (fh *fileHandle) Sync() error { return fh.file.Sync() }

func (fh *fileHandle) Stat() (os.FileInfo, error) { return fh.file.Stat() }

// DiskManager defines methods for file operations.
type DiskManager interface {
	// Open opens a file with specified path, flags and permissions.
	// If the file is already open, returns the existing handle. Every
	// successful Open must be paired with a Close of the same path.
	Open(path string, flags int, perm os.FileMode) (FileHandle, error)
	// Delete removes the named file and closes its handle if open, even if
	// other callers still hold it.
	Delete(path string) error
	// List returns the sorted names of the regular files in dir that
	// contain the filter string. Empty filter matches all files.
	List(dir string, filter string) ([]string, error)
	// Close releases one reference to the handle for the file at path. The
	// file is closed when the last reference is released.
	Close(path string) error
}

type cachedHandle struct {
	handle FileHandle
	refs   int
}

// diskManager caches one reference-counted handle per path. It is safe for
// concurrent use; batch encoding opens many files from different goroutines.
type diskManager struct {
	mu          sync.Mutex
	fileHandles map[string]*cachedHandle
}

// NewDiskManager creates a new DiskManager instance.
func NewDiskManager() DiskManager {
	return &diskManager{
		fileHandles: make(map[string]*cachedHandle),
	}
}

// Open opens a file with the given flags and permissions.
// It caches the file handle keyed by path.
func (dm *diskManager) Open(path string, flags int, perm os.FileMode) (FileHandle, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if c, exists := dm.fileHandles[path]; exists {
		c.refs++
		return c.handle, nil
	}
	file, err := os.OpenFile(path, flags, perm)
	if err != nil {
		return nil, err
	}
	c := &cachedHandle{handle: NewFileHandle(file), refs: 1}
	dm.fileHandles[path] = c
	return c.handle, nil
}

func (dm *diskManager) Delete(path string) error {
	dm.mu.Lock()
	if c, exists := dm.fileHandles[path]; exists {
		_ = c.handle.Close()
		delete(dm.fileHandles, path)
	}
	dm.mu.Unlock()
	return os.Remove(path)
}

func (dm *diskManager) List(dir string, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filter == "" || strings.Contains(entry.Name(), filter) {
			files = append(files, entry.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

func (dm *diskManager) Close(path string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	c, exists := dm.fileHandles[path]
	if !exists {
		return nil
	}
	if c.refs--; c.refs > 0 {
		return nil
	}
	delete(dm.fileHandles, path)
	return c.handle.Close()
}
