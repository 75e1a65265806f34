package video

import (
	"context"
	"regexp"

	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

var youtubeURL = regexp.MustCompile(`^https://(?:(?:www\.youtube\.com/watch\?([^v]+=.+&)*v=)|(?:youtu\.be/))(?P<id>[^?&]+).*$`)

// IsSupportedURL reports whether url points at a video we can fetch metadata for.
func IsSupportedURL(url string) bool {
	return youtubeURL.MatchString(url)
}

// VideoID extracts the YouTube video id from url.
func VideoID(url string) (string, bool) {
	m := youtubeURL.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	id := m[youtubeURL.SubexpIndex("id")]
	return id, id != ""
}

// MetadataSource resolves a video URL into its metadata. A nil result with a
// nil error means the video does not exist.
type MetadataSource interface {
	Metadata(ctx context.Context, url string) (*recipe.VideoMetadata, error)
}
