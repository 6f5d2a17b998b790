package rag

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/upb/clearpath-assistant/models"
	"go.uber.org/zap"
)

// Retriever scores every corpus passage against a query embedding
type Retriever struct {
	corpus   *Corpus
	embedder Embedder
	logger   *zap.Logger
}

// NewRetriever creates a new Retriever
func NewRetriever(corpus *Corpus, embedder Embedder, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		corpus:   corpus,
		embedder: embedder,
		logger:   logger,
	}
}

// Corpus returns the snapshot this retriever scans
func (r *Retriever) Corpus() *Corpus {
	return r.corpus
}

// Retrieve returns at most topK passages ordered by descending score.
// Ties keep corpus order. Returned passages carry no embedding.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.Passage, error) {
	if topK <= 0 || r.corpus.Len() == 0 {
		return []models.Passage{}, nil
	}

	start := time.Now()

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", ErrEmbeddingFailure)
	}

	scored := make([]models.Passage, r.corpus.Len())
	for i := range scored {
		p := r.corpus.At(i)
		score, err := CosineSimilarity(queryEmbedding, p.Embedding)
		if err != nil {
			return nil, fmt.Errorf("scoring passage %d: %w", i, err)
		}
		scored[i] = models.Passage{Text: p.Text, Source: p.Source, Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	r.logger.Debug("retrieved passages",
		zap.Int("corpus_size", r.corpus.Len()),
		zap.Int("returned", len(scored)),
		zap.Duration("duration", time.Since(start)))

	return scored, nil
}
