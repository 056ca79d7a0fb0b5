// Package mockdm provides an in-memory disk manager for testing.
package mockdm

import (
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/MikhailWahib/bjson/internal/diskmanager"
)

// MockFile implements diskmanager.FileHandle over a byte slice.
type MockFile struct {
	mu   sync.Mutex
	data []byte
	name string
}

// WriteAt writes len(b) bytes to the file starting at byte offset off,
// growing the file as needed.
func (m *MockFile) WriteAt(b []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if requiredLen := int(off) + len(b); requiredLen > len(m.data) {
		m.data = append(m.data, make([]byte, requiredLen-len(m.data))...)
	}
	return copy(m.data[off:], b), nil
}

// ReadAt reads len(b) bytes from the file starting at byte offset off
func (m *MockFile) ReadAt(b []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(b, m.data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

// Truncate changes the size of the file.
func (m *MockFile) Truncate(size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(size) <= len(m.data) {
		m.data = m.data[:size]
	} else {
		m.data = append(m.data, make([]byte, int(size)-len(m.data))...)
	}
	return nil
}

// Bytes returns a copy of the file contents.
func (m *MockFile) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data)
}

// Close closes the mock file
func (m *MockFile) Close() error { return nil }

// Sync simulates syncing file contents to disk
func (m *MockFile) Sync() error { return nil }

// Stat returns file information
func (m *MockFile) Stat() (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &testFileInfo{size: int64(len(m.data)), name: path.Base(m.name)}, nil
}

type testFileInfo struct {
	size int64
	name string
}

func (m *testFileInfo) Name() string       { return m.name }
func (m *testFileInfo) Size() int64        { return m.size }
func (m *testFileInfo) Mode() os.FileMode  { return 0644 }
func (m *testFileInfo) ModTime() time.Time { return time.Now() }
func (m *testFileInfo) IsDir() bool        { return false }
func (m *testFileInfo) Sys() any           { return nil }

// MockDiskManager implements diskmanager.DiskManager in memory. Files are
// created on first Open regardless of flags, except that opening a missing
// file without os.O_CREATE fails with os.ErrNotExist.
type MockDiskManager struct {
	mu    sync.Mutex
	files map[string]*MockFile
}

var _ diskmanager.DiskManager = (*MockDiskManager)(nil)

// NewMockDiskManager creates a new MockDiskManager instance
func NewMockDiskManager() *MockDiskManager {
	return &MockDiskManager{
		files: make(map[string]*MockFile),
	}
}

// Open creates or opens a mock file
func (dm *MockDiskManager) Open(name string, flags int, _ os.FileMode) (diskmanager.FileHandle, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if file, exists := dm.files[name]; exists {
		return file, nil
	}
	if flags&os.O_CREATE == 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	file := &MockFile{name: name}
	dm.files[name] = file
	return file, nil
}

// Put stores data as the contents of the file at name.
func (dm *MockDiskManager) Put(name string, data []byte) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.files[name] = &MockFile{name: name, data: slices.Clone(data)}
}

// File returns the mock file at name, or nil if it does not exist.
func (dm *MockDiskManager) File(name string) *MockFile {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.files[name]
}

// Delete removes a mock file
func (dm *MockDiskManager) Delete(name string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if _, exists := dm.files[name]; !exists {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
	}
	delete(dm.files, name)
	return nil
}

// List returns the sorted base names of the files directly inside dir that
// contain filter. Listing a file fails with syscall.ENOTDIR and listing a
// directory that holds no files fails with os.ErrNotExist.
func (dm *MockDiskManager) List(dir string, filter string) ([]string, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dir = path.Clean(dir)
	if _, isFile := dm.files[dir]; isFile {
		return nil, &os.PathError{Op: "readdirent", Path: dir, Err: syscall.ENOTDIR}
	}
	var files []string
	found := dir == "."
	for name := range dm.files {
		if strings.HasPrefix(name, dir+"/") {
			found = true
		}
		if path.Dir(name) != dir {
			continue
		}
		base := path.Base(name)
		if filter == "" || strings.Contains(base, filter) {
			files = append(files, base)
		}
	}
	if !found {
		return nil, &os.PathError{Op: "open", Path: dir, Err: os.ErrNotExist}
	}
	slices.Sort(files)
	return files, nil
}

// Close closes a mock file
func (dm *MockDiskManager) Close(_ string) error {
	return nil
}
