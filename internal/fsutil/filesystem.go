// Package fsutil abstracts the filesystem that holds uploaded scans and
// rendered exports, with an in-memory implementation for tests.
package fsutil

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileSystem is the storage surface used by the artifact store and the
// scan loader.
type FileSystem interface {
	Open(name string) (fs.File, error)
	// Create truncates or creates name, making parent directories.
	Create(name string) (io.WriteCloser, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	RemoveAll(path string) error
	Exists(name string) bool
}

// OSFileSystem is the real disk.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (fs.File, error) { return os.Open(name) }

func (OSFileSystem) Create(name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, err
	}
	return os.Create(name)
}

func (OSFileSystem) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, data, perm)
}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error)        { return os.Stat(name) }
func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (OSFileSystem) RemoveAll(path string) error                  { return os.RemoveAll(path) }

func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// MemoryFileSystem keeps files in a map keyed by cleaned path. Directories
// are implied by the files beneath them or created with MkdirAll.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string]memEntry
	dirs  map[string]bool
}

type memEntry struct {
	data    []byte
	mode    os.FileMode
	modTime time.Time
}

// NewMemoryFileSystem returns an empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{files: map[string]memEntry{}, dirs: map[string]bool{}}
}

func notExist(op, name string) error {
	return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
}

// Open returns a seekable reader over a snapshot of the file.
func (m *MemoryFileSystem) Open(name string) (fs.File, error) {
	name = filepath.Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.files[name]
	if !ok {
		return nil, notExist("open", name)
	}
	return &memFile{Reader: bytes.NewReader(e.data), info: e.info(name)}, nil
}

// Create returns a writer whose contents become visible on Close.
func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	return &memWriter{fs: m, name: filepath.Clean(name)}, nil
}

// ReadFile returns a copy of the file contents.
func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	name = filepath.Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.files[name]
	if !ok {
		return nil, notExist("read", name)
	}
	return append([]byte(nil), e.data...), nil
}

// WriteFile stores a copy of data.
func (m *MemoryFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.put(filepath.Clean(name), append([]byte(nil), data...), perm)
	return nil
}

func (m *MemoryFileSystem) put(name string, data []byte, perm os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = memEntry{data: data, mode: perm, modTime: time.Now()}
}

// Stat describes a file or directory.
func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	name = filepath.Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.files[name]; ok {
		return e.info(name), nil
	}
	if m.isDir(name) {
		return memInfo{name: filepath.Base(name), mode: fs.ModeDir | 0o755}, nil
	}
	return nil, notExist("stat", name)
}

func (m *MemoryFileSystem) isDir(name string) bool {
	if m.dirs[name] {
		return true
	}
	prefix := name + string(filepath.Separator)
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

// MkdirAll records path as a directory.
func (m *MemoryFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[filepath.Clean(path)] = true
	return nil
}

// RemoveAll deletes path and everything below it.
func (m *MemoryFileSystem) RemoveAll(path string) error {
	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)
	m.mu.Lock()
	defer m.mu.Unlock()
	for f := range m.files {
		if f == path || strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	return nil
}

// Exists reports whether a file or directory is present.
func (m *MemoryFileSystem) Exists(name string) bool {
	_, err := m.Stat(name)
	return err == nil
}

// Paths lists every stored file in sorted order.
func (m *MemoryFileSystem) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for f := range m.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (e memEntry) info(name string) memInfo {
	return memInfo{name: filepath.Base(name), size: int64(len(e.data)), mode: e.mode, modTime: e.modTime}
}

type memFile struct {
	*bytes.Reader
	info memInfo
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *memFile) Close() error               { return nil }

type memWriter struct {
	fs   *MemoryFileSystem
	name string
	buf  bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memWriter) Close() error {
	w.fs.put(w.name, w.buf.Bytes(), 0o644)
	return nil
}

type memInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return i.mode }
func (i memInfo) ModTime() time.Time { return i.modTime }
func (i memInfo) IsDir() bool        { return i.mode.IsDir() }
func (i memInfo) Sys() any           { return nil }
