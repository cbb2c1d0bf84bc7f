// Package embedder provides interfaces and implementations for text embedding.
package embedder

import "context"

// Embedder defines the interface for text embedding services.
type Embedder interface {
	// Embed generates an embedding vector for a single text input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for multiple text inputs.
	// Returns a slice of embeddings in the same order as the input texts.
	// Embedding is per-input: encode([x])[0] equals encode([x, y])[0].
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the embedding vectors.
	// Changing the dimension of a deployment requires dropping all
	// stored vectors.
	Dimension() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}

// KnownDimensions maps embedding model names to their vector sizes.
var KnownDimensions = map[string]int{
	"all-minilm":             384,
	"all-MiniLM-L6-v2":       384,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"snowflake-arctic-embed": 1024,
}

// ModelDimension returns the dimension for a model, defaulting to 384
// for unknown models.
func ModelDimension(modelName string) int {
	if d, ok := KnownDimensions[modelName]; ok {
		return d
	}
	return 384
}
