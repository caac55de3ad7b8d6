// Package retriever embeds a query and finds the most similar chunks in the
// video's namespace.
package retriever

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/interfaces"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"github.com/tubesage/tubesage/pkg/utils/logging"
)

const DefaultTopK = 6

type Service struct {
	repo      interfaces.ChunkRepository
	embedder  interfaces.Embedder
	dimension int
}

type Option func(*Service)

func WithDimension(dim int) Option {
	return func(s *Service) {
		if dim > 0 {
			s.dimension = dim
		}
	}
}

func New(repo interfaces.ChunkRepository, embedder interfaces.Embedder, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		embedder:  embedder,
		dimension: model.EmbeddingDimension,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve returns up to topK chunks ranked by similarity to the query. An
// empty result is not an error.
func (s *Service) Retrieve(ctx context.Context, ns types.Namespace, query string, topK int) ([]*model.Chunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := s.embedder.GenerateEmbedding(ctx, s.dimension, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("namespace", ns))
	}
	if len(vectors) == 0 {
		return nil, goerr.New("embedder returned no vectors", goerr.V("namespace", ns))
	}

	embedding := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		embedding[i] = float32(v)
	}

	chunks, err := s.repo.FindByEmbedding(ctx, ns, embedding, topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks", goerr.V("namespace", ns))
	}

	logging.From(ctx).Debug("retrieved chunks",
		"namespace", ns,
		"topK", topK,
		"hits", len(chunks),
	)
	return chunks, nil
}
