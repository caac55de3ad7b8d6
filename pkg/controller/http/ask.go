package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/model"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"github.com/tubesage/tubesage/pkg/service/transcript"
	"github.com/tubesage/tubesage/pkg/usecase"
	"github.com/tubesage/tubesage/pkg/utils/errutil"
	"github.com/tubesage/tubesage/pkg/utils/logging"
	"github.com/tubesage/tubesage/pkg/utils/safe"
)

const maxRequestBody = 1 << 20 // 1 MiB

type askRequest struct {
	VideoURL    string   `json:"videoUrl"`
	Query       string   `json:"query"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Timestamp   *float64 `json:"timestamp,omitempty"`
	Transcript  string   `json:"transcript,omitempty"`
}

func askHandler(uc AskUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req askRequest
		body := http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode request body"), http.StatusBadRequest)
			return
		}
		if req.VideoURL == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("videoUrl is required"), http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("query is required"), http.StatusBadRequest)
			return
		}

		answer, err := uc.Ask(ctx, usecase.AskInput{
			VideoURL: req.VideoURL,
			Query:    req.Query,
			Context: model.QueryContext{
				Title:       req.Title,
				Description: req.Description,
				Timestamp:   req.Timestamp,
				Transcript:  req.Transcript,
			},
		})
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusFor(err))
			return
		}

		if !answer.IsStreaming() {
			w.Header().Set("Content-Type", "application/json")
			resp := map[string]string{"answer": answer.Literal()}
			safe.Write(ctx, w, mustJSON(resp))
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		flusher, _ := w.(http.Flusher)
		for frag := range answer.Stream() {
			if frag.Err != nil {
				// generation was interrupted mid-stream; the status line is
				// already committed, so append an in-band marker
				logging.From(ctx).Warn("answer stream interrupted", "error", frag.Err)
				safe.Write(ctx, w, []byte(fmt.Sprintf("\n\n[error: %s]", frag.Err)))
				break
			}
			safe.Write(ctx, w, []byte(frag.Text))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// statusFor maps pipeline errors onto HTTP status codes. Caller mistakes are
// 400s, everything else is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidVideoURL),
		errors.Is(err, transcript.ErrTranscriptUnavailable),
		errors.Is(err, transcript.ErrEmptyTranscript):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
