package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"matrix-api/domain"
)

// FileStore keeps every document in memory and mirrors the whole map to a
// single JSON file on each replace. Two near-simultaneous replaces of the
// same key race; the later write wins.
type FileStore struct {
	mu     sync.Mutex
	path   string
	docs   map[string]domain.Document
	logger *log.Logger
}

// NewFileStore loads the file at path, starting empty when it is missing
// or malformed. The parent directory is created if needed.
func NewFileStore(path string, logger *log.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("storage: file path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &FileStore{path: path, docs: make(map[string]domain.Document), logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.docs); err != nil {
		if logger != nil {
			logger.WithError(err).Warnf("discarding malformed store file %s", path)
		}
		s.docs = make(map[string]domain.Document)
	}
	return s, nil
}

// FetchDocument returns the stored document for key, or the empty default
// when the key is unknown. It never fails for an unknown key.
func (s *FileStore) FetchDocument(_ context.Context, key string) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	if !ok {
		return domain.EmptyDocument(), nil
	}
	return doc.Clone(), nil
}

// ReplaceDocument overwrites the document for key unconditionally and
// rewrites the backing file in full.
func (s *FileStore) ReplaceDocument(_ context.Context, key string, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = doc.Clone()
	return s.persistLocked()
}

func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.docs, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := syncFile(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	return syncDir(filepath.Dir(s.path))
}

func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer dir.Close()
	return dir.Sync()
}
