package transcript

import (
	"net/http"
	"strings"
	"time"

	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/interfaces"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
)

// Sentinel errors for transcript loading
var (
	ErrTranscriptUnavailable = goerr.New("transcript unavailable")
	ErrEmptyTranscript       = goerr.New("transcript is empty")
)

// Loader obtains a video's transcript: a caller-supplied text is wrapped
// directly with no network fetch, otherwise captions are fetched from
// YouTube in the preferred language.
type Loader struct {
	httpClient *http.Client
	language   string
	baseURL    string
}

var _ interfaces.TranscriptSource = &Loader{}

type Option func(*Loader)

// WithHTTPClient substitutes the HTTP client used for caption fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.httpClient = client
	}
}

// WithLanguage sets the preferred caption language (default "en").
func WithLanguage(lang string) Option {
	return func(l *Loader) {
		l.language = lang
	}
}

// WithBaseURL points the loader at a different host, for tests.
func WithBaseURL(baseURL string) Option {
	return func(l *Loader) {
		l.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func New(opts ...Option) *Loader {
	l := &Loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		language:   "en",
		baseURL:    "https://www.youtube.com",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the transcript document for the video. Fails with
// ErrTranscriptUnavailable when captions cannot be fetched and with
// ErrEmptyTranscript when the resulting text is blank.
func (l *Loader) Load(ctx context.Context, videoID types.VideoID, videoURL string, supplied string) (*model.TranscriptDocument, error) {
	if supplied != "" {
		if strings.TrimSpace(supplied) == "" {
			return nil, goerr.Wrap(ErrEmptyTranscript, "supplied transcript is blank", goerr.V("videoID", videoID))
		}
		return &model.TranscriptDocument{
			VideoID:   videoID,
			Source:    videoURL,
			Text:      supplied,
			Supplied:  true,
			FetchedAt: time.Now().UTC(),
		}, nil
	}

	title, text, err := l.fetchCaptions(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrEmptyTranscript, "fetched captions are blank", goerr.V("videoID", videoID))
	}

	return &model.TranscriptDocument{
		VideoID:   videoID,
		Source:    videoURL,
		Title:     title,
		Text:      text,
		FetchedAt: time.Now().UTC(),
	}, nil
}
