package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore keeps runs in a JSON file under a data directory
type FileStore struct {
	dataDir string
	runs    map[string]*Run
	mu      sync.RWMutex
}

// NewFileStore opens or creates the store in dataDir
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	s := &FileStore{
		dataDir: dataDir,
		runs:    make(map[string]*Run),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// SaveRun stores a run, replacing any run with the same id
func (s *FileStore) SaveRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.runs[run.ID]
	s.runs[run.ID] = run
	if err := s.save(); err != nil {
		if existed {
			s.runs[run.ID] = prev
		} else {
			delete(s.runs, run.ID)
		}
		return err
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *FileStore) GetRun(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

// ListRuns returns runs newest first
func (s *FileStore) ListRuns(_ context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	runs := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// save rewrites runs.json through a temporary file so a crash never
// leaves it half written
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.runs, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dataDir, "runs.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// load reads runs from disk
func (s *FileStore) load() error {
	path := filepath.Join(s.dataDir, "runs.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(data, &s.runs)
}

// Ping always succeeds for the file store
func (s *FileStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}
