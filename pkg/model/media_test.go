package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectKind(t *testing.T) {
	cases := []struct {
		name        string
		filename    string
		contentType string
		want        MediaKind
	}{
		{"content type image", "blob", "image/png", MediaImage},
		{"content type video", "blob", "video/mp4", MediaVideo},
		{"extension image", "a.JPG", "application/octet-stream", MediaImage},
		{"extension video", "clip.mov", "", MediaVideo},
		{"unknown", "notes.txt", "text/plain", MediaRaw},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectKind(tc.filename, tc.contentType))
		})
	}
}

func TestMediaItemIsZero(t *testing.T) {
	assert.True(t, MediaItem{}.IsZero())
	assert.False(t, MediaItem{StorageID: "posts/a.png"}.IsZero())
}
