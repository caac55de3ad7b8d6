package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/interfaces"
)

// Firestore is the production vector store backend. Chunks live under
// videos/{namespace}/chunks with a native vector index on the embedding field
// (provisioned by the migrate command).
type Firestore struct {
	client *firestore.Client
	chunks *chunkRepository
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	return &Firestore{
		client: client,
		chunks: &chunkRepository{client: client},
	}, nil
}

func (f *Firestore) Chunk() interfaces.ChunkRepository {
	return f.chunks
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
