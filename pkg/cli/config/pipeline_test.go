package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/tubesage/tubesage/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func runWithFlags(t *testing.T, flags []cli.Flag, args ...string) {
	t.Helper()
	cmd := &cli.Command{
		Name:  "test",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
}

func TestPipelineDefaults(t *testing.T) {
	var cfg config.Pipeline
	runWithFlags(t, cfg.Flags())

	gt.Number(t, cfg.ChunkSize()).Equal(1000)
	gt.Number(t, cfg.Overlap()).Equal(150)
	gt.Number(t, cfg.TopK()).Equal(6)
	gt.Number(t, cfg.MaxRetries()).Equal(3)
	gt.Number(t, cfg.Dimension()).Equal(768)
}

func TestPipelineFlagOverride(t *testing.T) {
	var cfg config.Pipeline
	runWithFlags(t, cfg.Flags(), "--chunk-size", "500", "--top-k", "3")

	gt.Number(t, cfg.ChunkSize()).Equal(500)
	gt.Number(t, cfg.TopK()).Equal(3)
}

func TestPromptTemplate(t *testing.T) {
	t.Run("no file configured", func(t *testing.T) {
		var cfg config.Pipeline
		runWithFlags(t, cfg.Flags())

		text, err := cfg.PromptTemplate()
		gt.NoError(t, err)
		gt.Value(t, text).Equal("")
	})

	t.Run("loads system prompt from TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.toml")
		gt.NoError(t, os.WriteFile(path, []byte("system_prompt = \"answer about {{ .Title }}\"\n"), 0644))

		var cfg config.Pipeline
		runWithFlags(t, cfg.Flags(), "--prompt-file", path)

		text, err := cfg.PromptTemplate()
		gt.NoError(t, err)
		gt.Value(t, text).Equal("answer about {{ .Title }}")
	})

	t.Run("missing system_prompt key is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.toml")
		gt.NoError(t, os.WriteFile(path, []byte("other = 1\n"), 0644))

		var cfg config.Pipeline
		runWithFlags(t, cfg.Flags(), "--prompt-file", path)

		_, err := cfg.PromptTemplate()
		gt.Error(t, err)
	})
}
