package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	firestorepb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"google.golang.org/api/iterator"
)

// chunkDoc is the Firestore document representation of model.Chunk.
// Embedding is stored as firestore.Vector32 so that FindNearest vector search works.
type chunkDoc struct {
	ID        model.ChunkID      `firestore:"ID"`
	VideoID   types.VideoID      `firestore:"VideoID"`
	Source    string             `firestore:"Source"`
	Ordinal   int                `firestore:"Ordinal"`
	Start     int                `firestore:"Start"`
	Text      string             `firestore:"Text"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

func toChunkDoc(c *model.Chunk) *chunkDoc {
	doc := &chunkDoc{
		ID:        c.ID,
		VideoID:   c.VideoID,
		Source:    c.Source,
		Ordinal:   c.Ordinal,
		Start:     c.Start,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
	if len(c.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(c.Embedding)
	}
	return doc
}

func fromChunkDoc(d *chunkDoc) *model.Chunk {
	c := &model.Chunk{
		ID:        d.ID,
		VideoID:   d.VideoID,
		Source:    d.Source,
		Ordinal:   d.Ordinal,
		Start:     d.Start,
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
	}
	if len(d.Embedding) > 0 {
		c.Embedding = []float32(d.Embedding)
	}
	return c
}

type chunkRepository struct {
	client *firestore.Client
}

func (r *chunkRepository) chunksCollection(ns types.Namespace) *firestore.CollectionRef {
	return r.client.Collection("videos").Doc(ns.String()).Collection("chunks")
}

func (r *chunkRepository) Upsert(ctx context.Context, ns types.Namespace, chunk *model.Chunk) error {
	stored := *chunk
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	docRef := r.chunksCollection(ns).Doc(string(stored.ID))
	if _, err := docRef.Set(ctx, toChunkDoc(&stored)); err != nil {
		return goerr.Wrap(err, "failed to upsert chunk",
			goerr.V("namespace", ns),
			goerr.V("chunkID", stored.ID),
		)
	}

	return nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, ns types.Namespace, embedding []float32, limit int) ([]*model.Chunk, error) {
	vq := r.chunksCollection(ns).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	chunks := make([]*model.Chunk, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chunk vector search results", goerr.V("namespace", ns))
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk from vector search", goerr.V("namespace", ns))
		}

		chunks = append(chunks, fromChunkDoc(&d))
	}

	return chunks, nil
}

func (r *chunkRepository) Count(ctx context.Context, ns types.Namespace) (int, error) {
	results, err := r.chunksCollection(ns).NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks", goerr.V("namespace", ns))
	}

	value, ok := results["count"]
	if !ok {
		return 0, goerr.New("count missing from aggregation result", goerr.V("namespace", ns))
	}
	countValue, ok := value.(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected aggregation result type", goerr.V("namespace", ns))
	}

	return int(countValue.GetIntegerValue()), nil
}
