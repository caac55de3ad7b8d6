package model

import (
	"fmt"
	"time"

	"github.com/tubesage/tubesage/pkg/domain/types"
)

// TranscriptDocument is the raw transcript of a video plus metadata. Created
// once per video, either supplied by the caller or fetched; never mutated.
type TranscriptDocument struct {
	VideoID   types.VideoID
	Source    string // video URL
	Title     string
	Text      string
	Supplied  bool // true when the caller provided the transcript directly
	FetchedAt time.Time
}

// QueryContext is ephemeral per-request data accompanying a question. It is
// never persisted.
type QueryContext struct {
	Title       string
	Description string
	Timestamp   *float64 // playback position in seconds
	Transcript  string   // optional caller-supplied transcript
}

// TimestampLabel renders the playback position for prompt embedding: whole
// seconds floored, or "Start" when absent.
func (q QueryContext) TimestampLabel() string {
	if q.Timestamp == nil {
		return "Start"
	}
	return fmt.Sprintf("%d seconds", int64(*q.Timestamp))
}
