package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/service/chunker"
	"github.com/tubesage/tubesage/pkg/service/indexer"
	"github.com/tubesage/tubesage/pkg/service/nscache"
	"github.com/tubesage/tubesage/pkg/service/retriever"
	"github.com/urfave/cli/v3"
)

// Pipeline holds tuning flags for the ingestion and retrieval pipeline
type Pipeline struct {
	chunkSize   int
	overlap     int
	topK        int
	maxRetries  int
	retryDelay  time.Duration
	concurrency int
	cacheTTL    time.Duration
	dimension   int
	promptFile  string
}

// Flags returns CLI flags for pipeline configuration
func (p *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Maximum chunk length in characters",
			Value:       chunker.DefaultChunkSize,
			Sources:     cli.EnvVars("TUBESAGE_CHUNK_SIZE"),
			Destination: &p.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Overlap between adjacent chunks in characters",
			Value:       chunker.DefaultOverlap,
			Sources:     cli.EnvVars("TUBESAGE_CHUNK_OVERLAP"),
			Destination: &p.overlap,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of chunks to retrieve per query",
			Value:       retriever.DefaultTopK,
			Sources:     cli.EnvVars("TUBESAGE_TOP_K"),
			Destination: &p.topK,
		},
		&cli.IntFlag{
			Name:        "max-retries",
			Usage:       "Maximum attempts for a chunk upsert",
			Value:       indexer.DefaultMaxRetries,
			Sources:     cli.EnvVars("TUBESAGE_MAX_RETRIES"),
			Destination: &p.maxRetries,
		},
		&cli.DurationFlag{
			Name:        "retry-delay",
			Usage:       "Base delay between upsert retries",
			Value:       indexer.DefaultRetryDelay,
			Sources:     cli.EnvVars("TUBESAGE_RETRY_DELAY"),
			Destination: &p.retryDelay,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Concurrent embedding workers during ingestion",
			Value:       indexer.DefaultConcurrency,
			Sources:     cli.EnvVars("TUBESAGE_CONCURRENCY"),
			Destination: &p.concurrency,
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "How long a confirmed namespace stays cached",
			Value:       nscache.DefaultTTL,
			Sources:     cli.EnvVars("TUBESAGE_CACHE_TTL"),
			Destination: &p.cacheTTL,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Value:       model.EmbeddingDimension,
			Sources:     cli.EnvVars("TUBESAGE_EMBEDDING_DIMENSION"),
			Destination: &p.dimension,
		},
		&cli.StringFlag{
			Name:        "prompt-file",
			Usage:       "TOML file overriding the answer system prompt",
			Sources:     cli.EnvVars("TUBESAGE_PROMPT_FILE"),
			Destination: &p.promptFile,
		},
	}
}

func (p Pipeline) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("chunk_size", p.chunkSize),
		slog.Int("overlap", p.overlap),
		slog.Int("top_k", p.topK),
		slog.Int("max_retries", p.maxRetries),
		slog.Duration("retry_delay", p.retryDelay),
		slog.Int("concurrency", p.concurrency),
		slog.Duration("cache_ttl", p.cacheTTL),
		slog.Int("dimension", p.dimension),
		slog.String("prompt_file", p.promptFile),
	)
}

func (p *Pipeline) ChunkSize() int            { return p.chunkSize }
func (p *Pipeline) Overlap() int              { return p.overlap }
func (p *Pipeline) TopK() int                 { return p.topK }
func (p *Pipeline) MaxRetries() int           { return p.maxRetries }
func (p *Pipeline) RetryDelay() time.Duration { return p.retryDelay }
func (p *Pipeline) Concurrency() int          { return p.concurrency }
func (p *Pipeline) CacheTTL() time.Duration   { return p.cacheTTL }
func (p *Pipeline) Dimension() int            { return p.dimension }

type promptOverride struct {
	SystemPrompt string `toml:"system_prompt"`
}

// PromptTemplate loads the system prompt override from the configured TOML
// file. Returns an empty string when no file is configured.
func (p *Pipeline) PromptTemplate() (string, error) {
	if p.promptFile == "" {
		return "", nil
	}

	data, err := os.ReadFile(p.promptFile)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read prompt file", goerr.V("path", p.promptFile))
	}

	var override promptOverride
	if err := toml.Unmarshal(data, &override); err != nil {
		return "", goerr.Wrap(err, "failed to parse prompt file", goerr.V("path", p.promptFile))
	}
	if override.SystemPrompt == "" {
		return "", goerr.New("prompt file has no system_prompt", goerr.V("path", p.promptFile))
	}

	return override.SystemPrompt, nil
}
