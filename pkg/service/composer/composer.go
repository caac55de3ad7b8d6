// Package composer builds a grounded system prompt from retrieved chunks and
// drives a language model to produce the answer.
package composer

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/utils/logging"
)

var (
	ErrLLMUnavailable       = goerr.New("LLM is unavailable")
	ErrNoFallbackConfigured = goerr.New("no fallback model provider configured")
)

// NoContextAnswer is returned verbatim when retrieval produced nothing to
// ground an answer on.
const NoContextAnswer = "I couldn't find any relevant information in the video to answer your question."

//go:embed prompt/answer_system.md
var defaultPromptTemplate string

// Provider generates a streamed answer for a query under a system prompt.
// Providers are tried in order until one succeeds. A failure after streaming
// has begun is delivered in-band as a terminal fragment carrying the error.
type Provider interface {
	Name() string
	Stream(ctx context.Context, systemPrompt, query string) (<-chan model.Fragment, error)
}

type Service struct {
	providers []Provider
	tmpl      *template.Template
}

type Option func(*Service) error

// WithPromptTemplate replaces the built-in system prompt template. The text
// must be a valid text/template over the same fields.
func WithPromptTemplate(text string) Option {
	return func(s *Service) error {
		tmpl, err := template.New("answer_system").Parse(text)
		if err != nil {
			return goerr.Wrap(err, "failed to parse prompt template")
		}
		s.tmpl = tmpl
		return nil
	}
}

func New(providers []Provider, opts ...Option) (*Service, error) {
	s := &Service{
		providers: providers,
		tmpl:      template.Must(template.New("answer_system").Parse(defaultPromptTemplate)),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type promptExcerpt struct {
	Index int
	Text  string
}

type promptData struct {
	Title       string
	Description string
	Timestamp   string
	Excerpts    []promptExcerpt
}

// BuildPrompt renders the system prompt for a query context and its retrieved
// chunks.
func (s *Service) BuildPrompt(qc model.QueryContext, chunks []*model.Chunk) (string, error) {
	data := promptData{
		Title:       qc.Title,
		Description: qc.Description,
		Timestamp:   qc.TimestampLabel(),
	}
	for i, chunk := range chunks {
		data.Excerpts = append(data.Excerpts, promptExcerpt{Index: i + 1, Text: chunk.Text})
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt template")
	}
	return buf.String(), nil
}

// Compose answers the query grounded on the retrieved chunks. With no chunks
// it returns the literal no-context answer without touching any provider.
// Providers are tried in configuration order; the answer streams from the
// first one that accepts the request.
func (s *Service) Compose(ctx context.Context, query string, qc model.QueryContext, chunks []*model.Chunk) (*model.Answer, error) {
	if len(chunks) == 0 {
		return model.NewLiteralAnswer(NoContextAnswer), nil
	}
	if len(s.providers) == 0 {
		return nil, goerr.Wrap(ErrLLMUnavailable, "no model providers configured")
	}

	systemPrompt, err := s.BuildPrompt(qc, chunks)
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx)
	var lastErr error
	for i, provider := range s.providers {
		stream, err := provider.Stream(ctx, systemPrompt, query)
		if err != nil {
			lastErr = err
			logger.Warn("model provider failed, trying next",
				"provider", provider.Name(),
				"error", err,
			)
			continue
		}
		if i > 0 {
			logger.Info("answered via fallback provider", "provider", provider.Name())
		}
		return model.NewStreamingAnswer(s.adapt(ctx, stream)), nil
	}

	return nil, goerr.Wrap(ErrNoFallbackConfigured, "all model providers failed",
		goerr.V("providers", len(s.providers)),
		goerr.V("cause", lastErr.Error()),
	)
}

// adapt forwards a provider's fragments to the answer stream, surfacing
// context cancellation and provider failures as a terminal error fragment.
// Consumers drain the stream until it closes, so the error send blocks.
func (s *Service) adapt(ctx context.Context, stream <-chan model.Fragment) <-chan model.Fragment {
	out := make(chan model.Fragment)
	go func() {
		defer close(out)
		fail := func(err error) {
			out <- model.Fragment{Err: err}
		}
		for {
			select {
			case <-ctx.Done():
				fail(ctx.Err())
				return
			case frag, ok := <-stream:
				if !ok {
					return
				}
				if frag.Err != nil {
					fail(frag.Err)
					return
				}
				if frag.Text == "" {
					continue
				}
				select {
				case out <- frag:
				case <-ctx.Done():
					fail(ctx.Err())
					return
				}
			}
		}
	}()
	return out
}
