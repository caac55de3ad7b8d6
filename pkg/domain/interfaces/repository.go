package interfaces

import (
	"context"

	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
)

// Repository defines the interface for vector store persistence
type Repository interface {
	Chunk() ChunkRepository
	Close() error
}

// ChunkRepository defines namespace-scoped chunk persistence and similarity
// search. Writes are partitioned per namespace; implementations must be safe
// for concurrent use.
type ChunkRepository interface {
	// Upsert stores a chunk with its embedding under the namespace,
	// overwriting any existing chunk with the same ID.
	Upsert(ctx context.Context, ns types.Namespace, chunk *model.Chunk) error

	// FindByEmbedding returns up to limit chunks from the namespace ordered
	// by descending cosine similarity to the given embedding. An unknown
	// namespace yields an empty result, not an error.
	FindByEmbedding(ctx context.Context, ns types.Namespace, embedding []float32, limit int) ([]*model.Chunk, error)

	// Count returns the number of chunks stored under the namespace.
	Count(ctx context.Context, ns types.Namespace) (int, error)
}
