package composer

import (
	"context"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/utils/safe"
)

type openaiProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider wraps an OpenAI chat model as an answer provider,
// typically placed after Gemini as the fallback.
func NewOpenAIProvider(client *openai.Client, model string) Provider {
	return &openaiProvider{client: client, model: model}
}

func (p *openaiProvider) Name() string {
	return "openai"
}

func (p *openaiProvider) Stream(ctx context.Context, systemPrompt, query string) (<-chan model.Fragment, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Stream: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to start generation",
			goerr.V("provider", "openai"),
			goerr.V("model", p.model),
		)
	}

	out := make(chan model.Fragment)
	safe.Go(ctx, func() {
		defer close(out)
		defer safe.Close(ctx, stream)
		for {
			resp, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					frag := model.Fragment{Err: goerr.Wrap(err, "answer stream interrupted",
						goerr.V("provider", "openai"),
						goerr.V("model", p.model),
					)}
					select {
					case out <- frag:
					case <-ctx.Done():
					}
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			select {
			case out <- model.Fragment{Text: resp.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	})
	return out, nil
}
