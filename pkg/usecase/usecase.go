// Package usecase wires the pipeline: cache check, ingestion, retrieval and
// answer composition.
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/interfaces"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"github.com/tubesage/tubesage/pkg/service/chunker"
	"github.com/tubesage/tubesage/pkg/service/composer"
	"github.com/tubesage/tubesage/pkg/service/indexer"
	"github.com/tubesage/tubesage/pkg/service/retriever"
	"github.com/tubesage/tubesage/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

type UseCases struct {
	cache     interfaces.NamespaceCache
	source    interfaces.TranscriptSource
	splitter  *chunker.Splitter
	indexer   *indexer.Service
	retriever *retriever.Service
	composer  *composer.Service
	topK      int

	ingestGroup singleflight.Group
}

type Option func(*UseCases)

func WithTopK(k int) Option {
	return func(uc *UseCases) {
		if k > 0 {
			uc.topK = k
		}
	}
}

func New(
	cache interfaces.NamespaceCache,
	source interfaces.TranscriptSource,
	splitter *chunker.Splitter,
	idx *indexer.Service,
	ret *retriever.Service,
	cmp *composer.Service,
	opts ...Option,
) *UseCases {
	uc := &UseCases{
		cache:     cache,
		source:    source,
		splitter:  splitter,
		indexer:   idx,
		retriever: ret,
		composer:  cmp,
		topK:      retriever.DefaultTopK,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// AskInput is one question about one video.
type AskInput struct {
	VideoURL string
	Query    string
	Context  model.QueryContext
}

// Ask answers a question about a video, ingesting its transcript first when
// the namespace has no indexed chunks yet. Concurrent requests for the same
// video share a single ingestion.
func (uc *UseCases) Ask(ctx context.Context, input AskInput) (*model.Answer, error) {
	videoID, err := types.VideoIDFromURL(input.VideoURL)
	if err != nil {
		return nil, err
	}
	ns := videoID.Namespace()

	logger := logging.From(ctx).With(
		"session", uuid.Must(uuid.NewV7()).String(),
		"videoID", videoID,
		"namespace", ns,
	)
	ctx = logging.With(ctx, logger)

	if !uc.cache.Exists(ctx, ns) {
		if err := uc.ingest(ctx, videoID, input); err != nil {
			return nil, err
		}
	} else {
		logger.Debug("namespace already ingested, skipping ingestion")
	}

	chunks, err := uc.retriever.Retrieve(ctx, ns, input.Query, uc.topK)
	if err != nil {
		return nil, err
	}

	return uc.composer.Compose(ctx, input.Query, input.Context, chunks)
}

// ingest loads, chunks and indexes the video's transcript. Deduplicated per
// namespace so concurrent askers do not ingest the same video twice.
func (uc *UseCases) ingest(ctx context.Context, videoID types.VideoID, input AskInput) error {
	_, err, _ := uc.ingestGroup.Do(string(videoID.Namespace()), func() (any, error) {
		doc, err := uc.source.Load(ctx, videoID, input.VideoURL, input.Context.Transcript)
		if err != nil {
			return nil, err
		}

		chunks := uc.splitter.Split(doc)
		if len(chunks) == 0 {
			return nil, goerr.New("transcript produced no chunks", goerr.V("videoID", videoID))
		}

		return nil, uc.indexer.Ingest(ctx, videoID.Namespace(), chunks)
	})
	return err
}
