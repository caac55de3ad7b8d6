package composer_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tubesage/tubesage/pkg/service/composer"
)

func newOpenAIClient(t *testing.T, srv *httptest.Server) *openai.Client {
	t.Helper()
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func sseChunk(content string) string {
	return fmt.Sprintf(
		`data: {"id":"1","object":"chat.completion.chunk","created":0,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":%q}}]}`+"\n\n",
		content,
	)
}

func TestOpenAIProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("streams completion deltas", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, sseChunk("The video "))
			fmt.Fprint(w, sseChunk("is about pipelines."))
			fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		defer srv.Close()

		provider := composer.NewOpenAIProvider(newOpenAIClient(t, srv), "gpt-4o-mini")
		stream, err := provider.Stream(ctx, "system", "query")
		gt.NoError(t, err)

		var sb strings.Builder
		for frag := range stream {
			gt.NoError(t, frag.Err)
			sb.WriteString(frag.Text)
		}
		gt.Value(t, sb.String()).Equal("The video is about pipelines.")
	})

	t.Run("connection loss mid-stream yields an error fragment", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, sseChunk("partial "))
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			conn, _, err := w.(http.Hijacker).Hijack()
			if err != nil {
				return
			}
			_ = conn.Close()
		}))
		defer srv.Close()

		provider := composer.NewOpenAIProvider(newOpenAIClient(t, srv), "gpt-4o-mini")
		stream, err := provider.Stream(ctx, "system", "query")
		gt.NoError(t, err)

		var sb strings.Builder
		var streamErr error
		for frag := range stream {
			if frag.Err != nil {
				streamErr = frag.Err
				continue
			}
			sb.WriteString(frag.Text)
		}
		gt.Value(t, sb.String()).Equal("partial ")
		gt.Error(t, streamErr)
	})

	t.Run("rejected request fails before streaming", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"invalid model"}}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		provider := composer.NewOpenAIProvider(newOpenAIClient(t, srv), "no-such-model")
		_, err := provider.Stream(ctx, "system", "query")
		gt.Error(t, err)
	})
}
