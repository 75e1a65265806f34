package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", true},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", true},
		{"http://youtu.be/dQw4w9WgXcQ", false},
		{"https://vimeo.com/12345", false},
		{"not a url", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupportedURL(tt.url))
		})
	}
}

func TestVideoID(t *testing.T) {
	id, ok := VideoID("https://www.youtube.com/watch?v=abc123&list=x")
	assert.True(t, ok)
	assert.Equal(t, "abc123", id)

	id, ok = VideoID("https://youtu.be/xyz789?si=q")
	assert.True(t, ok)
	assert.Equal(t, "xyz789", id)

	_, ok = VideoID("https://example.com/watch?v=abc")
	assert.False(t, ok)
}
