package composer

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/utils/safe"
)

type gollemProvider struct {
	name   string
	client gollem.LLMClient
}

// NewGollemProvider wraps an LLM client as an answer provider. The name is
// used for logging and fallback reporting.
func NewGollemProvider(name string, client gollem.LLMClient) Provider {
	return &gollemProvider{name: name, client: client}
}

func (p *gollemProvider) Name() string {
	return p.name
}

func (p *gollemProvider) Stream(ctx context.Context, systemPrompt, query string) (<-chan model.Fragment, error) {
	session, err := p.client.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session", goerr.V("provider", p.name))
	}

	respCh, err := session.GenerateStream(ctx, gollem.Text(query))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to start generation", goerr.V("provider", p.name))
	}

	out := make(chan model.Fragment)
	safe.Go(ctx, func() {
		defer close(out)
		for resp := range respCh {
			if resp == nil {
				continue
			}
			if resp.Error != nil {
				frag := model.Fragment{Err: goerr.Wrap(resp.Error, "answer stream interrupted",
					goerr.V("provider", p.name),
				)}
				select {
				case out <- frag:
				case <-ctx.Done():
				}
				return
			}
			for _, text := range resp.Texts {
				select {
				case out <- model.Fragment{Text: text}:
				case <-ctx.Done():
					return
				}
			}
		}
	})
	return out, nil
}
