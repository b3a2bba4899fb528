// Package mocks provides mock implementations for testing.
package mocks

import "context"

// Embedder is a mock implementation of ports.Embedder.
type Embedder struct {
	EmbeddingResult []float32
	Err             error

	BatchCallCount int
	LastTexts      []string
}

// Embed returns the configured embedding or error.
func (m *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.LastTexts = []string{text}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.EmbeddingResult, nil
}

// EmbedBatch returns one copy of the configured embedding per text.
func (m *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.BatchCallCount++
	m.LastTexts = texts
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.EmbeddingResult
	}
	return result, nil
}
