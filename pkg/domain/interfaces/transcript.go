package interfaces

import (
	"context"

	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
)

// TranscriptSource obtains the transcript of a video, either by wrapping a
// caller-supplied text or by fetching captions.
type TranscriptSource interface {
	Load(ctx context.Context, videoID types.VideoID, videoURL string, supplied string) (*model.TranscriptDocument, error)
}
