package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/cli/config"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/usecase"
	"github.com/tubesage/tubesage/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var videoURL string
	var query string
	var title string
	var description string
	var timestamp float64
	var transcriptFile string
	var captionLanguage string
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var openaiCfg config.OpenAI
	var pipeCfg config.Pipeline

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "video-url",
			Usage:       "YouTube video URL",
			Required:    true,
			Aliases:     []string{"u"},
			Destination: &videoURL,
		},
		&cli.StringFlag{
			Name:        "query",
			Usage:       "Question to ask about the video",
			Required:    true,
			Aliases:     []string{"q"},
			Destination: &query,
		},
		&cli.StringFlag{
			Name:        "title",
			Usage:       "Video title for prompt context",
			Destination: &title,
		},
		&cli.StringFlag{
			Name:        "description",
			Usage:       "Video description for prompt context",
			Destination: &description,
		},
		&cli.FloatFlag{
			Name:        "timestamp",
			Usage:       "Current playback position in seconds",
			Value:       -1,
			Destination: &timestamp,
		},
		&cli.StringFlag{
			Name:        "transcript-file",
			Usage:       "Read the transcript from a file instead of fetching captions",
			Destination: &transcriptFile,
		},
		&cli.StringFlag{
			Name:        "caption-language",
			Usage:       "Preferred caption language code",
			Value:       "en",
			Sources:     cli.EnvVars("TUBESAGE_CAPTION_LANGUAGE"),
			Destination: &captionLanguage,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, openaiCfg.Flags()...)
	flags = append(flags, pipeCfg.Flags()...)

	return &cli.Command{
		Name:    "ask",
		Aliases: []string{"a"},
		Usage:   "Ask a question about a video from the terminal",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}

			uc, err := buildUseCases(repo, llmClient, &openaiCfg, &pipeCfg, captionLanguage)
			if err != nil {
				return goerr.Wrap(err, "failed to build pipeline")
			}

			logging.Default().Debug("ask pipeline ready",
				"backend", repoCfg.Backend(),
				"gemini", geminiCfg,
				"openai", openaiCfg,
				"pipeline", pipeCfg,
			)

			qc := model.QueryContext{
				Title:       title,
				Description: description,
			}
			if timestamp >= 0 {
				qc.Timestamp = &timestamp
			}
			if transcriptFile != "" {
				data, err := os.ReadFile(transcriptFile)
				if err != nil {
					return goerr.Wrap(err, "failed to read transcript file", goerr.V("path", transcriptFile))
				}
				qc.Transcript = string(data)
			}

			color.Cyan("Q: %s", query)

			answer, err := uc.Ask(ctx, usecase.AskInput{
				VideoURL: videoURL,
				Query:    query,
				Context:  qc,
			})
			if err != nil {
				return err
			}

			if !answer.IsStreaming() {
				fmt.Println(answer.Literal())
				return nil
			}

			for frag := range answer.Stream() {
				if frag.Err != nil {
					fmt.Println()
					return goerr.Wrap(frag.Err, "answer stream interrupted")
				}
				fmt.Print(frag.Text)
			}
			fmt.Println()
			return nil
		},
	}
}
