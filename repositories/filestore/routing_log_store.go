package filestore

import (
	"bufio"
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

// RoutingLogStore appends one JSON object per line
type RoutingLogStore struct {
	path string
	mu   sync.Mutex
}

// NewRoutingLogStore creates a store over path
func NewRoutingLogStore(path string) repositories.RoutingLogRepository {
	return &RoutingLogStore{path: path}
}

// Insert implements repositories.RoutingLogRepository. Appends are serialized.
func (s *RoutingLogStore) Insert(ctx context.Context, entry *models.RoutingLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode routing log: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create routing log directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open routing log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append routing log: %w", err)
	}
	return nil
}

// ListRecent implements repositories.RoutingLogRepository.
// Lines that fail to decode are skipped.
func (s *RoutingLogStore) ListRecent(ctx context.Context, limit int) ([]*models.RoutingLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.RoutingLogEntry{}, nil
		}
		return nil, fmt.Errorf("failed to open routing log: %w", err)
	}
	defer f.Close()

	var all []*models.RoutingLogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		e := &models.RoutingLogEntry{}
		if err := json.Unmarshal(scanner.Bytes(), e); err != nil {
			continue
		}
		all = append(all, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read routing log: %w", err)
	}

	out := []*models.RoutingLogEntry{}
	for i := len(all) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, all[i])
	}
	return out, nil
}
