package extract

import (
	"context"
	"fmt"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/providers"
	"github.com/zhaopengme/recipeclaw/pkg/recipe"
	"github.com/zhaopengme/recipeclaw/pkg/video"
)

// Extractor fetches a video's metadata and the recipes in its description.
// A nil metadata result means the URL did not resolve to a video.
type Extractor interface {
	Extract(ctx context.Context, url string) (*recipe.VideoMetadata, []recipe.Recipe, error)
}

type VideoExtractor struct {
	source video.MetadataSource
	parser providers.RecipeParser
}

func NewVideoExtractor(source video.MetadataSource, parser providers.RecipeParser) *VideoExtractor {
	return &VideoExtractor{source: source, parser: parser}
}

func (e *VideoExtractor) Extract(ctx context.Context, url string) (*recipe.VideoMetadata, []recipe.Recipe, error) {
	if !video.IsSupportedURL(url) {
		return nil, nil, nil
	}

	meta, err := e.source.Metadata(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch video metadata: %w", err)
	}
	if meta == nil {
		return nil, nil, nil
	}

	if !recipe.Present(meta.Description) {
		logger.InfoCF("extract", "Video has no description", map[string]any{"url": meta.URL})
		return meta, []recipe.Recipe{}, nil
	}

	recipes, err := e.parser.ParseRecipes(ctx, *meta.Description)
	if err != nil {
		return meta, nil, fmt.Errorf("parse recipes with %s: %w", e.parser.Name(), err)
	}

	logger.DebugCF("extract", "Parsed recipes", map[string]any{
		"url":    meta.URL,
		"count":  len(recipes),
		"parser": e.parser.Name(),
		"model":  e.parser.Model(),
	})
	return meta, recipes, nil
}
