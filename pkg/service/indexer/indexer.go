// Package indexer embeds transcript chunks and writes them into the vector
// repository under the video's namespace.
package indexer

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/interfaces"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"github.com/tubesage/tubesage/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

var ErrIngestionFailed = goerr.New("ingestion failed")

const (
	DefaultConcurrency = 5
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 2 * time.Second
)

type Service struct {
	repo        interfaces.ChunkRepository
	embedder    interfaces.Embedder
	cache       interfaces.NamespaceCache
	dimension   int
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Service)

func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

func WithDimension(dim int) Option {
	return func(s *Service) {
		if dim > 0 {
			s.dimension = dim
		}
	}
}

func New(repo interfaces.ChunkRepository, embedder interfaces.Embedder, cache interfaces.NamespaceCache, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		embedder:    embedder,
		cache:       cache,
		dimension:   model.EmbeddingDimension,
		concurrency: DefaultConcurrency,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ingest embeds every chunk and upserts it into the namespace. Chunks are
// processed concurrently with a bounded worker count. The namespace is marked
// as ingested only after every chunk has been stored.
func (s *Service) Ingest(ctx context.Context, ns types.Namespace, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	logger := logging.From(ctx)
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, chunk := range chunks {
		g.Go(func() error {
			return s.ingestChunk(gctx, ns, chunk)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.cache.MarkIngested(ns)
	logger.Info("ingested chunks",
		"namespace", ns,
		"chunks", len(chunks),
		"elapsed", time.Since(started),
	)
	return nil
}

func (s *Service) ingestChunk(ctx context.Context, ns types.Namespace, chunk *model.Chunk) error {
	embedding, err := s.embed(ctx, chunk.Text)
	if err != nil {
		return goerr.Wrap(ErrIngestionFailed, "failed to embed chunk",
			goerr.V("namespace", ns),
			goerr.V("chunkID", chunk.ID),
			goerr.V("cause", err.Error()),
		)
	}
	chunk.Embedding = embedding

	return s.upsertWithRetry(ctx, ns, chunk)
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedder.GenerateEmbedding(ctx, s.dimension, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, goerr.New("embedder returned no vectors")
	}

	embedding := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

func (s *Service) upsertWithRetry(ctx context.Context, ns types.Namespace, chunk *model.Chunk) error {
	logger := logging.From(ctx)

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := s.repo.Upsert(ctx, ns, chunk); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < s.maxRetries {
			logger.Warn("chunk upsert failed, retrying",
				"namespace", ns,
				"chunkID", chunk.ID,
				"attempt", attempt,
				"error", lastErr,
			)
			if err := s.sleep(ctx, s.retryDelay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}

	return goerr.Wrap(ErrIngestionFailed, "failed to store chunk",
		goerr.V("namespace", ns),
		goerr.V("chunkID", chunk.ID),
		goerr.V("attempts", s.maxRetries),
		goerr.V("cause", lastErr.Error()),
	)
}
