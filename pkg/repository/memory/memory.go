package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tubesage/tubesage/pkg/domain/interfaces"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
)

// Memory is an in-memory vector store for development and tests.
type Memory struct {
	chunks *chunkRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		chunks: newChunkRepository(),
	}
}

func (m *Memory) Chunk() interfaces.ChunkRepository {
	return m.chunks
}

func (m *Memory) Close() error {
	return nil
}

type chunkRepository struct {
	mu      sync.RWMutex
	entries map[types.Namespace]map[model.ChunkID]*model.Chunk
}

func newChunkRepository() *chunkRepository {
	return &chunkRepository{
		entries: make(map[types.Namespace]map[model.ChunkID]*model.Chunk),
	}
}

// copyChunk creates a deep copy of a chunk
func copyChunk(c *model.Chunk) *model.Chunk {
	copied := &model.Chunk{
		ID:        c.ID,
		VideoID:   c.VideoID,
		Source:    c.Source,
		Ordinal:   c.Ordinal,
		Start:     c.Start,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	return copied
}

func (r *chunkRepository) Upsert(ctx context.Context, ns types.Namespace, chunk *model.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, exists := r.entries[ns]
	if !exists {
		bucket = make(map[model.ChunkID]*model.Chunk)
		r.entries[ns] = bucket
	}

	stored := copyChunk(chunk)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	bucket[stored.ID] = stored

	return nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, ns types.Namespace, embedding []float32, limit int) ([]*model.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, exists := r.entries[ns]
	if !exists {
		return []*model.Chunk{}, nil
	}

	type scored struct {
		chunk *model.Chunk
		score float64
	}

	var candidates []scored
	for _, c := range bucket {
		if len(c.Embedding) == 0 {
			continue
		}
		s := cosineSimilarity(embedding, c.Embedding)
		candidates = append(candidates, scored{chunk: copyChunk(c), score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	result := make([]*model.Chunk, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].chunk
	}

	return result, nil
}

func (r *chunkRepository) Count(ctx context.Context, ns types.Namespace) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries[ns]), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
