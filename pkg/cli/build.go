package cli

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/tubesage/tubesage/pkg/cli/config"
	"github.com/tubesage/tubesage/pkg/domain/interfaces"
	"github.com/tubesage/tubesage/pkg/service/chunker"
	"github.com/tubesage/tubesage/pkg/service/composer"
	"github.com/tubesage/tubesage/pkg/service/indexer"
	"github.com/tubesage/tubesage/pkg/service/nscache"
	"github.com/tubesage/tubesage/pkg/service/retriever"
	"github.com/tubesage/tubesage/pkg/service/transcript"
	"github.com/tubesage/tubesage/pkg/usecase"
)

// buildUseCases assembles the ask pipeline from configured collaborators.
func buildUseCases(repo interfaces.Repository, llmClient gollem.LLMClient, openaiCfg *config.OpenAI, pipeCfg *config.Pipeline, captionLanguage string) (*usecase.UseCases, error) {
	splitter, err := chunker.New(pipeCfg.ChunkSize(), pipeCfg.Overlap())
	if err != nil {
		return nil, goerr.Wrap(err, "invalid chunking configuration")
	}

	cache := nscache.New(repo.Chunk(), nscache.WithTTL(pipeCfg.CacheTTL()))

	idx := indexer.New(repo.Chunk(), llmClient, cache,
		indexer.WithDimension(pipeCfg.Dimension()),
		indexer.WithConcurrency(pipeCfg.Concurrency()),
		indexer.WithMaxRetries(pipeCfg.MaxRetries()),
		indexer.WithRetryDelay(pipeCfg.RetryDelay()),
	)

	ret := retriever.New(repo.Chunk(), llmClient,
		retriever.WithDimension(pipeCfg.Dimension()),
	)

	var composerOpts []composer.Option
	promptText, err := pipeCfg.PromptTemplate()
	if err != nil {
		return nil, err
	}
	if promptText != "" {
		composerOpts = append(composerOpts, composer.WithPromptTemplate(promptText))
	}

	providers := []composer.Provider{composer.NewGollemProvider("gemini", llmClient)}
	if oaClient := openaiCfg.Configure(); oaClient != nil {
		providers = append(providers, composer.NewOpenAIProvider(oaClient, openaiCfg.Model()))
	}

	cmp, err := composer.New(providers, composerOpts...)
	if err != nil {
		return nil, err
	}

	loader := transcript.New(transcript.WithLanguage(captionLanguage))

	return usecase.New(cache, loader, splitter, idx, ret, cmp,
		usecase.WithTopK(pipeCfg.TopK()),
	), nil
}
