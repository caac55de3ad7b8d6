package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"github.com/tubesage/tubesage/pkg/utils/safe"
)

// captionTrack is one entry of the captionTracks array embedded in the watch
// page's player response.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

// timedText is the XML payload served by the caption endpoint.
type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

// fetchCaptions loads the watch page, discovers the caption track for the
// preferred language and fetches its timed text. Returns the video title and
// the joined transcript text.
func (l *Loader) fetchCaptions(ctx context.Context, videoID types.VideoID) (string, string, error) {
	page, err := l.get(ctx, l.baseURL+"/watch?v="+videoID.String())
	if err != nil {
		return "", "", goerr.Wrap(ErrTranscriptUnavailable, "failed to fetch watch page",
			goerr.V("videoID", videoID),
			goerr.V("cause", err.Error()),
		)
	}

	track, err := pickTrack(page, l.language)
	if err != nil {
		return "", "", goerr.Wrap(ErrTranscriptUnavailable, "no usable caption track",
			goerr.V("videoID", videoID),
			goerr.V("language", l.language),
			goerr.V("cause", err.Error()),
		)
	}

	captionURL := track.BaseURL
	if strings.HasPrefix(captionURL, "/") {
		captionURL = l.baseURL + captionURL
	}
	raw, err := l.get(ctx, captionURL)
	if err != nil {
		return "", "", goerr.Wrap(ErrTranscriptUnavailable, "failed to fetch captions",
			goerr.V("videoID", videoID),
			goerr.V("cause", err.Error()),
		)
	}

	var tt timedText
	if err := xml.Unmarshal(raw, &tt); err != nil {
		return "", "", goerr.Wrap(ErrTranscriptUnavailable, "failed to parse caption XML",
			goerr.V("videoID", videoID),
			goerr.V("cause", err.Error()),
		)
	}

	parts := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Body))
		if text != "" {
			parts = append(parts, text)
		}
	}

	return pageTitle(page), strings.Join(parts, " "), nil
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", url))
	}
	req.Header.Set("Accept-Language", l.language)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed", goerr.V("url", url))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status", goerr.V("url", url), goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body", goerr.V("url", url))
	}

	return body, nil
}

const captionTracksMarker = `"captionTracks":`

// pickTrack extracts the captionTracks array embedded in the watch page and
// picks the track matching the preferred language, falling back to the first
// available track.
func pickTrack(page []byte, language string) (*captionTrack, error) {
	idx := strings.Index(string(page), captionTracksMarker)
	if idx < 0 {
		return nil, goerr.New("no caption tracks on watch page")
	}

	dec := json.NewDecoder(strings.NewReader(string(page[idx+len(captionTracksMarker):])))
	var tracks []captionTrack
	if err := dec.Decode(&tracks); err != nil {
		return nil, goerr.Wrap(err, "failed to decode caption tracks")
	}
	if len(tracks) == 0 {
		return nil, goerr.New("caption track list is empty")
	}

	for i := range tracks {
		if tracks[i].LanguageCode == language {
			return &tracks[i], nil
		}
	}
	return &tracks[0], nil
}

// pageTitle pulls the video title out of the watch page's <title> tag.
func pageTitle(page []byte) string {
	s := string(page)
	start := strings.Index(s, "<title>")
	if start < 0 {
		return ""
	}
	start += len("<title>")
	end := strings.Index(s[start:], "</title>")
	if end < 0 {
		return ""
	}
	title := html.UnescapeString(s[start : start+end])
	return strings.TrimSpace(strings.TrimSuffix(title, " - YouTube"))
}
