package composer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/service/composer"
)

type fakeProvider struct {
	name      string
	fail      bool
	calls     int
	prompts   []string
	queries   []string
	texts     []string
	streamErr error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Stream(ctx context.Context, systemPrompt, query string) (<-chan model.Fragment, error) {
	p.calls++
	if p.fail {
		return nil, goerr.New("provider down", goerr.V("provider", p.name))
	}
	p.prompts = append(p.prompts, systemPrompt)
	p.queries = append(p.queries, query)

	out := make(chan model.Fragment, len(p.texts)+1)
	for _, text := range p.texts {
		out <- model.Fragment{Text: text}
	}
	if p.streamErr != nil {
		out <- model.Fragment{Err: p.streamErr}
	}
	close(out)
	return out, nil
}

func collect(t *testing.T, answer *model.Answer) string {
	t.Helper()
	gt.Bool(t, answer.IsStreaming()).True()
	var sb strings.Builder
	for frag := range answer.Stream() {
		gt.NoError(t, frag.Err)
		sb.WriteString(frag.Text)
	}
	return sb.String()
}

func testChunks(texts ...string) []*model.Chunk {
	chunks := make([]*model.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &model.Chunk{
			ID:      model.ChunkIDFor("dQw4w9WgXcQ", i),
			VideoID: "dQw4w9WgXcQ",
			Ordinal: i,
			Text:    text,
		}
	}
	return chunks
}

func TestCompose(t *testing.T) {
	ctx := context.Background()
	ts := 83.7
	qc := model.QueryContext{
		Title:       "Go Concurrency Patterns",
		Description: "A talk about pipelines",
		Timestamp:   &ts,
	}

	t.Run("streams answer grounded on chunks", func(t *testing.T) {
		provider := &fakeProvider{name: "primary", texts: []string{"The video ", "is about pipelines."}}
		svc, err := composer.New([]composer.Provider{provider})
		gt.NoError(t, err)

		answer, err := svc.Compose(ctx, "What is the topic?", qc, testChunks("pipelines are chained stages"))
		gt.NoError(t, err)
		gt.Value(t, collect(t, answer)).Equal("The video is about pipelines.")

		gt.Array(t, provider.prompts).Length(1)
		prompt := provider.prompts[0]
		gt.String(t, prompt).Contains("Go Concurrency Patterns")
		gt.String(t, prompt).Contains("A talk about pipelines")
		gt.String(t, prompt).Contains("83 seconds")
		gt.String(t, prompt).Contains("[Excerpt 1]")
		gt.String(t, prompt).Contains("pipelines are chained stages")
		gt.Array(t, provider.queries).Equal([]string{"What is the topic?"})
	})

	t.Run("query is not baked into the system prompt", func(t *testing.T) {
		provider := &fakeProvider{name: "primary", texts: []string{"ok"}}
		svc, err := composer.New([]composer.Provider{provider})
		gt.NoError(t, err)

		_, err = svc.Compose(ctx, "a very unique query marker", qc, testChunks("context"))
		gt.NoError(t, err)
		gt.Bool(t, strings.Contains(provider.prompts[0], "a very unique query marker")).False()
	})

	t.Run("empty retrieval short-circuits to the literal answer", func(t *testing.T) {
		provider := &fakeProvider{name: "primary", texts: []string{"should not run"}}
		svc, err := composer.New([]composer.Provider{provider})
		gt.NoError(t, err)

		answer, err := svc.Compose(ctx, "anything", qc, nil)
		gt.NoError(t, err)
		gt.Bool(t, answer.IsStreaming()).False()
		gt.Value(t, answer.Literal()).Equal(composer.NoContextAnswer)
		gt.Number(t, provider.calls).Equal(0)
	})

	t.Run("missing timestamp renders as Start", func(t *testing.T) {
		provider := &fakeProvider{name: "primary", texts: []string{"ok"}}
		svc, err := composer.New([]composer.Provider{provider})
		gt.NoError(t, err)

		_, err = svc.Compose(ctx, "q", model.QueryContext{Title: "t"}, testChunks("c"))
		gt.NoError(t, err)
		gt.String(t, provider.prompts[0]).Contains("Start")
	})

	t.Run("falls back to the next provider", func(t *testing.T) {
		primary := &fakeProvider{name: "primary", fail: true}
		fallback := &fakeProvider{name: "fallback", texts: []string{"from fallback"}}
		svc, err := composer.New([]composer.Provider{primary, fallback})
		gt.NoError(t, err)

		answer, err := svc.Compose(ctx, "q", qc, testChunks("c"))
		gt.NoError(t, err)
		gt.Value(t, collect(t, answer)).Equal("from fallback")
		gt.Number(t, primary.calls).Equal(1)
		gt.Number(t, fallback.calls).Equal(1)
	})

	t.Run("provider failure mid-stream surfaces an error fragment", func(t *testing.T) {
		provider := &fakeProvider{
			name:      "primary",
			texts:     []string{"partial "},
			streamErr: goerr.New("model went away"),
		}
		svc, err := composer.New([]composer.Provider{provider})
		gt.NoError(t, err)

		answer, err := svc.Compose(ctx, "q", qc, testChunks("c"))
		gt.NoError(t, err)
		gt.Bool(t, answer.IsStreaming()).True()

		var sb strings.Builder
		var streamErr error
		for frag := range answer.Stream() {
			if frag.Err != nil {
				streamErr = frag.Err
				break
			}
			sb.WriteString(frag.Text)
		}
		gt.Value(t, sb.String()).Equal("partial ")
		gt.Error(t, streamErr)
		gt.String(t, streamErr.Error()).Contains("model went away")
	})

	t.Run("all providers failing is an error", func(t *testing.T) {
		primary := &fakeProvider{name: "primary", fail: true}
		fallback := &fakeProvider{name: "fallback", fail: true}
		svc, err := composer.New([]composer.Provider{primary, fallback})
		gt.NoError(t, err)

		_, err = svc.Compose(ctx, "q", qc, testChunks("c"))
		gt.Bool(t, errors.Is(err, composer.ErrNoFallbackConfigured)).True()
	})

	t.Run("no providers configured is an error", func(t *testing.T) {
		svc, err := composer.New(nil)
		gt.NoError(t, err)

		_, err = svc.Compose(ctx, "q", qc, testChunks("c"))
		gt.Bool(t, errors.Is(err, composer.ErrLLMUnavailable)).True()
	})

	t.Run("custom prompt template overrides the default", func(t *testing.T) {
		provider := &fakeProvider{name: "primary", texts: []string{"ok"}}
		svc, err := composer.New([]composer.Provider{provider},
			composer.WithPromptTemplate("CUSTOM {{ .Title }}"),
		)
		gt.NoError(t, err)

		_, err = svc.Compose(ctx, "q", qc, testChunks("c"))
		gt.NoError(t, err)
		gt.String(t, provider.prompts[0]).Contains("CUSTOM Go Concurrency Patterns")
	})

	t.Run("invalid prompt template is rejected at construction", func(t *testing.T) {
		_, err := composer.New(nil, composer.WithPromptTemplate("{{ .Broken"))
		gt.Error(t, err)
	})
}
