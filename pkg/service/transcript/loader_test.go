package transcript_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"github.com/tubesage/tubesage/pkg/service/transcript"
)

func newCaptionServer(t *testing.T, tracksJSON string, timedText string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Concurrency Patterns &amp; Pipelines - YouTube</title></head>`+
			`<body><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":%s}}};</script></body></html>`,
			tracksJSON)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, timedText)
	})

	return httptest.NewServer(mux)
}

func TestLoaderFetch(t *testing.T) {
	ctx := context.Background()
	videoID := types.VideoID("dQw4w9WgXcQ")

	t.Run("fetches captions and title", func(t *testing.T) {
		srv := newCaptionServer(t,
			`[{"baseUrl":"/api/timedtext?lang=en","languageCode":"en"}]`,
			`<transcript><text start="0" dur="2.5">Hello world,</text><text start="2.5" dur="3">this is a &amp;quot;test&amp;quot;.</text></transcript>`,
		)
		defer srv.Close()

		loader := transcript.New(
			transcript.WithBaseURL(srv.URL),
			transcript.WithHTTPClient(srv.Client()),
		)
		doc, err := loader.Load(ctx, videoID, "https://youtu.be/dQw4w9WgXcQ", "")
		gt.NoError(t, err)
		gt.Value(t, doc.Title).Equal("Concurrency Patterns & Pipelines")
		gt.Value(t, doc.Text).Equal(`Hello world, this is a "test".`)
		gt.Value(t, doc.VideoID).Equal(videoID)
		gt.Bool(t, doc.Supplied).False()
	})

	t.Run("prefers configured language track", func(t *testing.T) {
		srv := newCaptionServer(t,
			`[{"baseUrl":"/api/timedtext?lang=ja","languageCode":"ja"},{"baseUrl":"/api/timedtext?lang=en","languageCode":"en"}]`,
			`<transcript><text start="0" dur="1">ok</text></transcript>`,
		)
		defer srv.Close()

		var captionLang string
		client := srv.Client()
		base := client.Transport
		client.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path == "/api/timedtext" {
				captionLang = r.URL.Query().Get("lang")
			}
			return base.RoundTrip(r)
		})

		loader := transcript.New(
			transcript.WithBaseURL(srv.URL),
			transcript.WithHTTPClient(client),
			transcript.WithLanguage("en"),
		)
		_, err := loader.Load(ctx, videoID, "", "")
		gt.NoError(t, err)
		gt.Value(t, captionLang).Equal("en")
	})

	t.Run("falls back to first track when language missing", func(t *testing.T) {
		srv := newCaptionServer(t,
			`[{"baseUrl":"/api/timedtext?lang=ja","languageCode":"ja"}]`,
			`<transcript><text start="0" dur="1">ok</text></transcript>`,
		)
		defer srv.Close()

		loader := transcript.New(
			transcript.WithBaseURL(srv.URL),
			transcript.WithHTTPClient(srv.Client()),
			transcript.WithLanguage("en"),
		)
		doc, err := loader.Load(ctx, videoID, "", "")
		gt.NoError(t, err)
		gt.Value(t, doc.Text).Equal("ok")
	})

	t.Run("fails when page has no caption tracks", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><head><title>No Captions - YouTube</title></head><body></body></html>`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		loader := transcript.New(
			transcript.WithBaseURL(srv.URL),
			transcript.WithHTTPClient(srv.Client()),
		)
		_, err := loader.Load(ctx, videoID, "", "")
		gt.Bool(t, errors.Is(err, transcript.ErrTranscriptUnavailable)).True()
	})

	t.Run("fails when captions are blank", func(t *testing.T) {
		srv := newCaptionServer(t,
			`[{"baseUrl":"/api/timedtext?lang=en","languageCode":"en"}]`,
			`<transcript><text start="0" dur="1">   </text></transcript>`,
		)
		defer srv.Close()

		loader := transcript.New(
			transcript.WithBaseURL(srv.URL),
			transcript.WithHTTPClient(srv.Client()),
		)
		_, err := loader.Load(ctx, videoID, "", "")
		gt.Bool(t, errors.Is(err, transcript.ErrEmptyTranscript)).True()
	})
}

func TestLoaderSupplied(t *testing.T) {
	ctx := context.Background()
	videoID := types.VideoID("dQw4w9WgXcQ")

	t.Run("uses supplied transcript without fetching", func(t *testing.T) {
		loader := transcript.New(transcript.WithBaseURL("http://127.0.0.1:1")) // unreachable
		doc, err := loader.Load(ctx, videoID, "", "supplied transcript text")
		gt.NoError(t, err)
		gt.Value(t, doc.Text).Equal("supplied transcript text")
		gt.Bool(t, doc.Supplied).True()
	})

	t.Run("rejects blank supplied transcript", func(t *testing.T) {
		loader := transcript.New()
		_, err := loader.Load(ctx, videoID, "", "   ")
		gt.Bool(t, errors.Is(err, transcript.ErrEmptyTranscript)).True()
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
