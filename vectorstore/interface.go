// Package vectorstore searches the food catalog by embedding similarity.
package vectorstore

import "context"

// VectorStore is a technology-agnostic interface for vector similarity search.
type VectorStore interface {
	// Search performs vector similarity search with optional filtering.
	Search(ctx context.Context, vector []float32, filter SearchFilter, limit int) ([]SearchResult, error)

	// Close releases any resources held by the vector store.
	Close() error
}

// SearchFilter defines filtering options for vector search.
type SearchFilter struct {
	// FoodType restricts results to one food type.
	FoodType string

	// Metadata filters results by payload key-value pairs.
	Metadata map[string]any

	// MinScore filters results below this similarity threshold (0.0-1.0).
	MinScore float32
}

// SearchResult is one catalog entry returned by a search.
type SearchResult struct {
	ID       string
	Score    float32 // higher is more similar
	Name     string
	FoodType string
	Metadata map[string]any
}

// Entry is a catalog point to index.
type Entry struct {
	Name     string
	FoodType string
	Vector   []float32
}

// Indexer is implemented by stores that can add catalog entries.
type Indexer interface {
	Upsert(ctx context.Context, entries []Entry) error
}
