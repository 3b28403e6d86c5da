package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Backend is a durable key-value store. Implementations must be safe for
// concurrent use because reads and writes run off the event loop.
type Backend interface {
	Write(key Key, data []byte) error
	// Read returns ok=false when no value exists for key.
	Read(key Key) (data []byte, ok bool, err error)
}

// MemoryBackend keeps records in process memory.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[Key][]byte

	// FailWrites and FailReads simulate an unavailable store.
	FailWrites error
	FailReads  error
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[Key][]byte)}
}

func (m *MemoryBackend) Write(key Key, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Read(key Key) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, false, m.FailReads
	}
	data, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Len returns the number of stored keys.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// FileBackend stores one JSON file per key under Dir. Records are written
// byte for byte.
type FileBackend struct {
	Dir string
}

// NewFileBackend returns a backend rooted at dir. The directory is created
// on first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

func (f *FileBackend) path(key Key) (string, error) {
	name := string(key)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid storage key %q", name)
	}
	return filepath.Join(f.Dir, name+".json"), nil
}

func (f *FileBackend) Write(key Key, data []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(f.Dir, ".tmp-"+string(key)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state %q: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Read(key Key) ([]byte, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return data, true, nil
}
