package rag

import (
	"fmt"

	"github.com/upb/clearpath-assistant/models"
)

// Corpus is an ordered, immutable snapshot of embedded passages.
// Order is the ingestion order and is used to break score ties.
type Corpus struct {
	passages  []models.Passage
	dimension int
}

// NewCorpus builds a corpus from the given passages.
// Every passage must carry an embedding of the same dimension.
func NewCorpus(passages []models.Passage) (*Corpus, error) {
	c := &Corpus{passages: make([]models.Passage, len(passages))}

	for i, p := range passages {
		if len(p.Embedding) == 0 {
			return nil, fmt.Errorf("passage %d from %q has no embedding", i, p.Source)
		}
		if c.dimension == 0 {
			c.dimension = len(p.Embedding)
		} else if len(p.Embedding) != c.dimension {
			return nil, fmt.Errorf("%w: passage %d from %q has %d dimensions, want %d",
				ErrDimensionMismatch, i, p.Source, len(p.Embedding), c.dimension)
		}

		emb := make([]float64, len(p.Embedding))
		copy(emb, p.Embedding)
		c.passages[i] = models.Passage{Text: p.Text, Source: p.Source, Embedding: emb}
	}

	return c, nil
}

// Len returns the number of passages. A nil corpus is empty.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.passages)
}

// Dimension returns the embedding dimension, or 0 for an empty corpus
func (c *Corpus) Dimension() int {
	return c.dimension
}

// At returns the passage at index i
func (c *Corpus) At(i int) models.Passage {
	return c.passages[i]
}

// Sources returns the distinct sources in first-seen order
func (c *Corpus) Sources() []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, p := range c.passages {
		if _, ok := seen[p.Source]; ok {
			continue
		}
		seen[p.Source] = struct{}{}
		sources = append(sources, p.Source)
	}
	return sources
}
