package types

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidVideoURL indicates that no video identifier could be extracted
// from the given URL. It is a client error and is never retried.
var ErrInvalidVideoURL = goerr.New("invalid video URL")

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// VideoID is the identifier of a YouTube video, extracted from its URL.
type VideoID string

// Validate checks if the VideoID is well-formed.
func (v VideoID) Validate() error {
	if v == "" {
		return goerr.New("video ID cannot be empty")
	}
	if !videoIDPattern.MatchString(string(v)) {
		return goerr.New("video ID must be alphanumeric with hyphens and underscores", goerr.V("id", v))
	}
	return nil
}

// String returns the string representation of VideoID.
func (v VideoID) String() string {
	return string(v)
}

// Namespace returns the vector store namespace for this video. One namespace
// per distinct video ID, reused across queries.
func (v VideoID) Namespace() Namespace {
	return Namespace("yt-" + string(v))
}

// Namespace is an isolated partition within the vector store holding all
// indexed chunks for one video.
type Namespace string

// String returns the string representation of Namespace.
func (n Namespace) String() string {
	return string(n)
}

// Validate checks if the Namespace is well-formed.
func (n Namespace) Validate() error {
	if !strings.HasPrefix(string(n), "yt-") {
		return goerr.New("namespace must have yt- prefix", goerr.V("namespace", n))
	}
	return nil
}

// VideoIDFromURL extracts the video ID from a YouTube URL. It understands
// watch URLs (?v=...), youtu.be short links, and /embed, /shorts and /live
// paths. Returns ErrInvalidVideoURL when no identifier is present.
func VideoIDFromURL(raw string) (VideoID, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", goerr.Wrap(ErrInvalidVideoURL, "unparseable URL", goerr.V("url", raw))
	}

	var candidate string
	if v := u.Query().Get("v"); v != "" {
		candidate = v
	} else if strings.HasSuffix(u.Host, "youtu.be") {
		candidate = strings.Trim(u.Path, "/")
	} else {
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				candidate = strings.SplitN(rest, "/", 2)[0]
				break
			}
		}
	}

	id := VideoID(candidate)
	if err := id.Validate(); err != nil {
		return "", goerr.Wrap(ErrInvalidVideoURL, "no video identifier in URL", goerr.V("url", raw))
	}

	return id, nil
}
