package video

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

type YouTubeConfig struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
}

type YouTubeClient struct {
	svc *youtube.Service
}

func NewYouTubeClient(ctx context.Context, cfg YouTubeConfig) (*YouTubeClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTubeClient{svc: svc}, nil
}

func (c *YouTubeClient) Metadata(ctx context.Context, url string) (*recipe.VideoMetadata, error) {
	id, ok := VideoID(url)
	if !ok {
		return nil, nil
	}

	videos, err := c.svc.Videos.List([]string{"snippet"}).Id(id).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list video %s: %w", id, err)
	}
	if len(videos.Items) == 0 || videos.Items[0].Snippet == nil {
		logger.InfoCF("video", "Video not found", map[string]any{"video_id": id})
		return nil, nil
	}
	snippet := videos.Items[0].Snippet

	meta := &recipe.VideoMetadata{
		Title:       optional(snippet.Title),
		Description: optional(snippet.Description),
		URL:         "https://www.youtube.com/watch?v=" + id,
		ChannelURL:  "https://www.youtube.com/channel/" + snippet.ChannelId,
	}
	if snippet.Thumbnails != nil && snippet.Thumbnails.Default != nil {
		meta.Thumbnail = optional(snippet.Thumbnails.Default.Url)
	}

	if snippet.ChannelId == "" {
		return meta, nil
	}

	channels, err := c.svc.Channels.List([]string{"snippet"}).Id(snippet.ChannelId).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list channel %s: %w", snippet.ChannelId, err)
	}
	if len(channels.Items) > 0 && channels.Items[0].Snippet != nil {
		ch := channels.Items[0].Snippet
		meta.ChannelName = optional(ch.Title)
		if ch.Thumbnails != nil && ch.Thumbnails.Default != nil {
			meta.ChannelIcon = optional(ch.Thumbnails.Default.Url)
		}
	}

	return meta, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
