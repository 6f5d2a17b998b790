package rag

import "strings"

const (
	DefaultChunkSize    = 450
	DefaultChunkOverlap = 80
)

// Chunker splits document text into overlapping word windows
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker returns a chunker with the default window and overlap
func NewChunker() Chunker {
	return Chunker{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Split returns windows of at most Size words, each starting Size-Overlap
// words after the previous one. Whitespace is normalized to single spaces.
func (c Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	size := c.Size
	if size <= 0 {
		size = DefaultChunkSize
	}
	step := size - c.Overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
