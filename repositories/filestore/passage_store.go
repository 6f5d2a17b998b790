// Package filestore implements the repositories on local files: the corpus as
// a JSON array of {text, source, embedding} and the routing log as JSON lines.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/repositories"
)

// ErrCorpusMissing is returned when the embeddings file does not exist
var ErrCorpusMissing = errors.New("corpus file not found")

// PassageStore reads and writes the embeddings file
type PassageStore struct {
	path string
	mu   sync.RWMutex
}

// NewPassageStore creates a store over path
func NewPassageStore(path string) repositories.PassageRepository {
	return &PassageStore{path: path}
}

// LoadAll implements repositories.PassageRepository
func (s *PassageStore) LoadAll(ctx context.Context) ([]models.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCorpusMissing, s.path)
		}
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	passages := []models.Passage{}
	if err := json.Unmarshal(data, &passages); err != nil {
		return nil, fmt.Errorf("failed to decode corpus %s: %w", s.path, err)
	}
	for i := range passages {
		passages[i].Score = 0
	}

	return passages, nil
}

// ReplaceAll writes to a temp file and renames it over the target
func (s *PassageStore) ReplaceAll(ctx context.Context, passages []models.Passage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if passages == nil {
		passages = []models.Passage{}
	}
	data, err := json.MarshalIndent(toStored(passages), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create corpus directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".embeddings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp corpus file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace corpus: %w", err)
	}
	return nil
}

// Count implements repositories.PassageRepository
func (s *PassageStore) Count(ctx context.Context) (int, error) {
	passages, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(passages), nil
}

// storedPassage is the on-disk shape; scores are never persisted
type storedPassage struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Embedding []float64 `json:"embedding"`
}

func toStored(passages []models.Passage) []storedPassage {
	out := make([]storedPassage, len(passages))
	for i, p := range passages {
		out[i] = storedPassage{Text: p.Text, Source: p.Source, Embedding: p.Embedding}
	}
	return out
}
