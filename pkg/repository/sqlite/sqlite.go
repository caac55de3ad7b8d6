package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/interfaces"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	namespace  TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	video_id   TEXT    NOT NULL,
	source     TEXT    NOT NULL,
	ordinal    INTEGER NOT NULL,
	start      INTEGER NOT NULL,
	text       TEXT    NOT NULL,
	embedding  BLOB    NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (namespace, id)
);
CREATE INDEX IF NOT EXISTS idx_chunks_namespace ON chunks(namespace);
`

// SQLite is a file-backed vector store. Embeddings are stored as little-endian
// float32 blobs; similarity ranking happens in process, which is fine at
// per-video scale.
type SQLite struct {
	db     *sql.DB
	chunks *chunkRepository
}

var _ interfaces.Repository = &SQLite{}

func New(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to initialize sqlite schema", goerr.V("path", path))
	}

	return &SQLite{
		db:     db,
		chunks: &chunkRepository{db: db},
	}, nil
}

func (s *SQLite) Chunk() interfaces.ChunkRepository {
	return s.chunks
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type chunkRepository struct {
	db *sql.DB
}

func (r *chunkRepository) Upsert(ctx context.Context, ns types.Namespace, chunk *model.Chunk) error {
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chunks (namespace, id, video_id, source, ordinal, start, text, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace, id) DO UPDATE SET
			video_id = excluded.video_id,
			source = excluded.source,
			ordinal = excluded.ordinal,
			start = excluded.start,
			text = excluded.text,
			embedding = excluded.embedding`,
		ns.String(), string(chunk.ID), chunk.VideoID.String(), chunk.Source,
		chunk.Ordinal, chunk.Start, chunk.Text, encodeEmbedding(chunk.Embedding), createdAt,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to upsert chunk",
			goerr.V("namespace", ns),
			goerr.V("chunkID", chunk.ID),
		)
	}

	return nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, ns types.Namespace, embedding []float32, limit int) ([]*model.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, video_id, source, ordinal, start, text, embedding, created_at
		FROM chunks WHERE namespace = ?`,
		ns.String(),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query chunks", goerr.V("namespace", ns))
	}
	defer rows.Close()

	type scored struct {
		chunk *model.Chunk
		score float64
	}

	var candidates []scored
	for rows.Next() {
		var (
			c    model.Chunk
			id   string
			vid  string
			blob []byte
		)
		if err := rows.Scan(&id, &vid, &c.Source, &c.Ordinal, &c.Start, &c.Text, &blob, &c.CreatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan chunk row", goerr.V("namespace", ns))
		}
		c.ID = model.ChunkID(id)
		c.VideoID = types.VideoID(vid)
		c.Embedding = decodeEmbedding(blob)
		if len(c.Embedding) == 0 {
			continue
		}
		candidates = append(candidates, scored{chunk: &c, score: cosineSimilarity(embedding, c.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate chunk rows", goerr.V("namespace", ns))
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
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE namespace = ?`, ns.String(),
	).Scan(&count)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks", goerr.V("namespace", ns))
	}
	return count, nil
}

func encodeEmbedding(embedding []float32) []byte {
	buf := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(blob []byte) []float32 {
	embedding := make([]float32, len(blob)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return embedding
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
