// Package routinglog writes routing decisions asynchronously so the answer
// path never waits on the sink.
package routinglog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/upb/clearpath-assistant/internal/observability"
	"github.com/upb/clearpath-assistant/internal/prompt"
	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/repositories"
)

var (
	// ErrNotStarted is returned when recording before Start
	ErrNotStarted = errors.New("routing log service not started")

	// ErrBufferFull is returned when an entry is dropped
	ErrBufferFull = errors.New("routing log buffer full")
)

// Config holds configuration for the Service
type Config struct {
	BufferSize   int           // Size of the entry buffer channel
	WorkerCount  int           // Number of concurrent workers
	WriteTimeout time.Duration // Per-entry repository timeout
	RedactPII    bool          // Mask personal data in queries before writing
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:   1000,
		WorkerCount:  1,
		WriteTimeout: 5 * time.Second,
		RedactPII:    true,
	}
}

// Service handles asynchronous routing log writes
type Service struct {
	repo      repositories.RoutingLogRepository
	logger    *zap.Logger
	metrics   *observability.Metrics
	entryChan chan *models.RoutingLogEntry
	config    Config
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
	stopped   bool
	written   uint64
	dropped   uint64
	failed    uint64
}

// NewService creates a new Service instance. metrics may be nil.
func NewService(repo repositories.RoutingLogRepository, logger *zap.Logger, metrics *observability.Metrics, config Config) *Service {
	defaults := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		entryChan: make(chan *models.RoutingLogEntry, config.BufferSize),
		config:    config,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("routing log service already started")
	}

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started routing log service",
		zap.Int("worker_count", s.config.WorkerCount),
		zap.Int("buffer_size", s.config.BufferSize))

	return nil
}

// Stop drains pending entries, waiting at most timeout
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.stopped = true
	pending := len(s.entryChan)
	close(s.entryChan)
	s.mu.Unlock()

	s.logger.Info("stopping routing log service", zap.Int("pending_entries", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("routing log service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("routing log service stop timeout after %v", timeout)
	}
}

// Record queues an entry without blocking. A full buffer drops the entry
// with a warning.
func (s *Service) Record(entry *models.RoutingLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return ErrNotStarted
	}

	select {
	case s.entryChan <- entry:
		return nil
	default:
		s.dropped++
		s.metrics.RecordRoutingLogDropped()
		s.logger.Warn("routing log buffer full, dropping entry",
			zap.String("request_id", entry.RequestID),
			zap.String("classification", string(entry.Classification)),
			zap.String("model", entry.ModelUsed))
		return ErrBufferFull
	}
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("routing log worker started", zap.Int("worker_id", id))

	for entry := range s.entryChan {
		if err := s.write(entry); err != nil {
			s.mu.Lock()
			s.failed++
			s.mu.Unlock()
			s.logger.Error("failed to write routing log entry",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("request_id", entry.RequestID))
			continue
		}
		s.mu.Lock()
		s.written++
		s.mu.Unlock()
	}

	s.logger.Debug("routing log worker stopped", zap.Int("worker_id", id))
}

func (s *Service) write(entry *models.RoutingLogEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()

	if s.config.RedactPII {
		redacted := *entry
		redacted.Query = prompt.RedactPII(entry.Query)
		entry = &redacted
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert routing log entry: %w", err)
	}
	return nil
}

// GetStats returns statistics about the service
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:     s.config.BufferSize,
		PendingEntries: len(s.entryChan),
		WorkerCount:    s.config.WorkerCount,
		Started:        s.started && !s.stopped,
		Written:        s.written,
		Dropped:        s.dropped,
		Failed:         s.failed,
	}
}

// Stats represents routing log service statistics
type Stats struct {
	BufferSize     int
	PendingEntries int
	WorkerCount    int
	Started        bool
	Written        uint64
	Dropped        uint64
	Failed         uint64
}
