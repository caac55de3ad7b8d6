package config

import (
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"github.com/urfave/cli/v3"
)

// OpenAI holds configuration for the optional OpenAI fallback model.
type OpenAI struct {
	apiKey string
	model  string
}

// Flags returns CLI flags for OpenAI configuration
func (o *OpenAI) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key enabling the fallback model (optional)",
			Sources:     cli.EnvVars("TUBESAGE_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &o.apiKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI chat model used as fallback",
			Value:       "gpt-4o-mini",
			Sources:     cli.EnvVars("TUBESAGE_OPENAI_MODEL"),
			Destination: &o.model,
		},
	}
}

func (o OpenAI) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", o.apiKey != ""),
		slog.String("model", o.model),
	)
}

// Model returns the configured chat model name.
func (o *OpenAI) Model() string {
	return o.model
}

// Configure creates an OpenAI client, or nil when no API key is set.
func (o *OpenAI) Configure() *openai.Client {
	if o.apiKey == "" {
		return nil
	}
	return openai.NewClient(o.apiKey)
}
