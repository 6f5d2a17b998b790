// Package rag implements the retrieval half of the ClearPath answer pipeline.
//
// This package provides:
//   - Cosine similarity over fixed-length embeddings
//   - An immutable, ordered corpus snapshot
//   - Linear-scan top-K retrieval with deterministic tie-breaking
//   - Context shaping heuristics applied to retrieved passages
//   - Word-window chunking used at ingestion time
//
// Retrieval is a full scan of the corpus per query. No index is built; the
// corpora this serves are in the low thousands of passages.
package rag
