// Package embedder provides interfaces for text embedding providers.
//
// The graph engine never computes embeddings itself; it only consumes the
// similarity scores derived from vectors produced here when experiences are
// registered.
package embedder

import "context"

// Provider defines the interface for embedding providers.
type Provider interface {
	// Embed converts a text string into a vector embedding.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple text strings into vector embeddings.
	// Order of the results matches the order of the inputs.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimension of the vectors this provider produces.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}
