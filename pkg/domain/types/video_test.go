package types_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/tubesage/tubesage/pkg/domain/types"
)

func TestVideoIDFromURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want types.VideoID
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with extra params", "https://www.youtube.com/watch?v=ABC123xyz_-&t=42s", "ABC123xyz_-"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"live URL", "https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := types.VideoIDFromURL(tc.url)
			gt.NoError(t, err)
			gt.Value(t, got).Equal(tc.want)
		})
	}
}

func TestVideoIDFromURLInvalid(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"no v parameter", "https://www.youtube.com/watch?list=PL123456"},
		{"channel URL", "https://www.youtube.com/@somechannel"},
		{"empty URL", ""},
		{"unrelated URL", "https://example.com/watch"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := types.VideoIDFromURL(tc.url)
			gt.Error(t, err)
			gt.Bool(t, errors.Is(err, types.ErrInvalidVideoURL)).True()
		})
	}
}

func TestNamespace(t *testing.T) {
	id := types.VideoID("dQw4w9WgXcQ")
	ns := id.Namespace()

	gt.Value(t, ns).Equal(types.Namespace("yt-dQw4w9WgXcQ"))
	gt.NoError(t, ns.Validate())

	// Same video ID always maps to the same namespace
	gt.Value(t, id.Namespace()).Equal(ns)
}
