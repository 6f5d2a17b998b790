// Package ingest builds the passage corpus from plain-text documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/upb/clearpath-assistant/internal/rag"
	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/repositories"
	"github.com/upb/clearpath-assistant/services"
	"go.uber.org/zap"
)

// ErrNoDocuments is returned when the source directory has nothing to ingest
var ErrNoDocuments = errors.New("no documents to ingest")

// Extensions accepted by ReadDocuments
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// BatchEmbedder embeds many texts in one call, preserving order
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Document is one source file's text
type Document struct {
	Source string
	Text   string
}

// Result summarizes an ingestion run
type Result struct {
	Documents int
	Passages  int
	Dimension int
	Duration  time.Duration
}

// Service chunks documents, embeds the chunks and replaces the corpus
type Service struct {
	passages repositories.PassageRepository
	txMgr    repositories.TransactionManager
	embedder BatchEmbedder
	chunker  rag.Chunker
	logger   *zap.Logger
}

// NewService creates a new ingestion service. txMgr may be nil for stores
// without transactions.
func NewService(
	passages repositories.PassageRepository,
	txMgr repositories.TransactionManager,
	embedder BatchEmbedder,
	chunker rag.Chunker,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		passages: passages,
		txMgr:    txMgr,
		embedder: embedder,
		chunker:  chunker,
		logger:   logger,
	}
}

// IngestDir reads every supported document under dir and ingests them
func (s *Service) IngestDir(ctx context.Context, dir string) (*Result, error) {
	docs, err := ReadDocuments(dir)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, docs)
}

// Ingest replaces the stored corpus with passages built from docs
func (s *Service) Ingest(ctx context.Context, docs []Document) (*Result, error) {
	start := time.Now()

	var texts []string
	var sources []string
	for _, doc := range docs {
		chunks := s.chunker.Split(doc.Text)
		s.logger.Debug("document chunked",
			zap.String("source", doc.Source),
			zap.Int("chunks", len(chunks)))
		for _, chunk := range chunks {
			texts = append(texts, chunk)
			sources = append(sources, doc.Source)
		}
	}
	if len(texts) == 0 {
		return nil, ErrNoDocuments
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, services.ErrEmbeddingFailure.Wrap(err)
	}
	if len(vectors) != len(texts) {
		return nil, services.ErrEmbeddingFailure.Wrap(
			fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(texts)))
	}

	passages := make([]models.Passage, len(texts))
	for i := range texts {
		passages[i] = models.Passage{
			Text:      texts[i],
			Source:    sources[i],
			Embedding: vectors[i],
		}
	}

	// The corpus must be loadable by the retriever, which rejects mixed dimensions
	corpus, err := rag.NewCorpus(passages)
	if err != nil {
		return nil, services.ErrDimensionMismatch.Wrap(err)
	}

	err = services.WithTransaction(ctx, s.txMgr, func(ctx context.Context) error {
		return s.passages.ReplaceAll(ctx, passages)
	})
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}

	result := &Result{
		Documents: len(docs),
		Passages:  len(passages),
		Dimension: corpus.Dimension(),
		Duration:  time.Since(start),
	}

	s.logger.Info("corpus ingested",
		zap.Int("documents", result.Documents),
		zap.Int("passages", result.Passages),
		zap.Int("dimension", result.Dimension),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// ReadDocuments loads .txt and .md files under dir in lexical path order.
// Sources are paths relative to dir using forward slashes.
func ReadDocuments(dir string) ([]Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		docs = append(docs, Document{
			Source: filepath.ToSlash(rel),
			Text:   string(data),
		})
	}

	return docs, nil
}
