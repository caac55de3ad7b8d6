package interfaces

import "context"

// Embedder generates fixed-dimension embedding vectors for texts. It is the
// subset of gollem.LLMClient the pipeline needs, kept narrow so tests can
// substitute a deterministic implementation.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error)
}
