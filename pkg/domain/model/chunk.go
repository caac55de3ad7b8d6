package model

import (
	"fmt"
	"time"

	"github.com/tubesage/tubesage/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector
// Gemini text-embedding-004 uses 768 dimensions
const EmbeddingDimension = 768

// ChunkID identifies a chunk within its namespace.
type ChunkID string

// ChunkIDFor derives a deterministic chunk ID from the video ID and the
// chunk's ordinal position. Re-ingesting the same transcript overwrites the
// same documents instead of duplicating them.
func ChunkIDFor(videoID types.VideoID, ordinal int) ChunkID {
	return ChunkID(fmt.Sprintf("%s-%04d", videoID, ordinal))
}

// Chunk is a bounded-length slice of transcript text, overlapping with its
// neighbors. Chunks are immutable once created; the ordinal index preserves
// transcript order and Start records the rune offset into the transcript for
// later timestamp estimation.
type Chunk struct {
	ID        ChunkID
	VideoID   types.VideoID
	Source    string // video URL the transcript came from
	Ordinal   int
	Start     int
	Text      string
	Embedding []float32
	CreatedAt time.Time
}
