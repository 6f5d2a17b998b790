package models

// Passage is a span of source document text with its precomputed embedding.
// Score is computed per query and is never persisted.
type Passage struct {
	Text      string    `json:"text" db:"text"`
	Source    string    `json:"source" db:"source"`
	Embedding []float64 `json:"embedding,omitempty" db:"embedding"`
	Score     float64   `json:"score"`
}

// WithScore returns a copy of the passage carrying the given score
func (p Passage) WithScore(score float64) Passage {
	p.Score = score
	return p
}

// TableName returns the table name for the Passage model
func (Passage) TableName() string {
	return "passages"
}
