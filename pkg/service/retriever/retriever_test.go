package retriever_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"github.com/tubesage/tubesage/pkg/repository/memory"
	"github.com/tubesage/tubesage/pkg/service/retriever"
)

// axisEmbedder maps known phrases onto fixed unit vectors so similarity
// ordering is fully deterministic.
type axisEmbedder struct {
	axes map[string][]float64
}

func (e *axisEmbedder) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	vectors := make([][]float64, len(input))
	for i, text := range input {
		v := make([]float64, dimension)
		if axis, ok := e.axes[text]; ok {
			copy(v, axis)
		} else {
			v[0] = 1
		}
		vectors[i] = v
	}
	return vectors, nil
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()
	ns := types.Namespace("yt-dQw4w9WgXcQ")

	embedder := &axisEmbedder{axes: map[string][]float64{
		"about cats": {1, 0, 0},
		"about dogs": {0, 1, 0},
	}}

	seed := func(t *testing.T) *memory.Memory {
		t.Helper()
		repo := memory.New()
		chunks := []*model.Chunk{
			{ID: "dQw4w9WgXcQ-0000", VideoID: "dQw4w9WgXcQ", Ordinal: 0, Text: "cats", Embedding: []float32{0.9, 0.1, 0}},
			{ID: "dQw4w9WgXcQ-0001", VideoID: "dQw4w9WgXcQ", Ordinal: 1, Text: "dogs", Embedding: []float32{0.1, 0.9, 0}},
			{ID: "dQw4w9WgXcQ-0002", VideoID: "dQw4w9WgXcQ", Ordinal: 2, Text: "mixed", Embedding: []float32{0.6, 0.6, 0}},
		}
		for _, chunk := range chunks {
			gt.NoError(t, repo.Chunk().Upsert(ctx, ns, chunk))
		}
		return repo
	}

	t.Run("ranks by similarity to the query", func(t *testing.T) {
		repo := seed(t)
		svc := retriever.New(repo.Chunk(), embedder, retriever.WithDimension(3))

		chunks, err := svc.Retrieve(ctx, ns, "about cats", 2)
		gt.NoError(t, err)
		gt.Array(t, chunks).Length(2)
		gt.Value(t, chunks[0].Text).Equal("cats")
		gt.Value(t, chunks[1].Text).Equal("mixed")
	})

	t.Run("zero topK falls back to default", func(t *testing.T) {
		repo := seed(t)
		svc := retriever.New(repo.Chunk(), embedder, retriever.WithDimension(3))

		chunks, err := svc.Retrieve(ctx, ns, "about dogs", 0)
		gt.NoError(t, err)
		gt.Array(t, chunks).Length(3)
		gt.Value(t, chunks[0].Text).Equal("dogs")
	})

	t.Run("unknown namespace returns no chunks", func(t *testing.T) {
		repo := seed(t)
		svc := retriever.New(repo.Chunk(), embedder, retriever.WithDimension(3))

		chunks, err := svc.Retrieve(ctx, types.Namespace("yt-unknown0000"), "about cats", 3)
		gt.NoError(t, err)
		gt.Array(t, chunks).Length(0)
	})
}
