package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"revisit/internal/fsutil"
)

// fileData is the on-disk shape of a FileStore.
type fileData struct {
	Values    map[string]string `json:"values"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// FileStore persists all values as a single JSON document. Every Set rewrites
// the file atomically.
type FileStore struct {
	mu     sync.Mutex
	path   string
	data   fileData
	closed bool
}

// OpenFile loads path if it exists; a missing file starts empty and is
// created on the first Set.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: fileData{Values: map[string]string{}},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, err
	}
	if s.data.Values == nil {
		s.data.Values = map[string]string{}
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.data.Values[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prev, had := s.data.Values[key]
	s.data.Values[key] = value
	s.data.UpdatedAt = time.Now().UTC()

	if err := s.flush(); err != nil {
		// Keep memory consistent with disk.
		if had {
			s.data.Values[key] = prev
		} else {
			delete(s.data.Values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(s.path, data, 0o600)
}
