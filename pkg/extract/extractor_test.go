package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

type stubSource struct {
	meta *recipe.VideoMetadata
	err  error
	urls []string
}

func (s *stubSource) Metadata(_ context.Context, url string) (*recipe.VideoMetadata, error) {
	s.urls = append(s.urls, url)
	return s.meta, s.err
}

type stubParser struct {
	recipes      []recipe.Recipe
	err          error
	descriptions []string
}

func (p *stubParser) ParseRecipes(_ context.Context, description string) ([]recipe.Recipe, error) {
	p.descriptions = append(p.descriptions, description)
	return p.recipes, p.err
}

func (p *stubParser) Name() string  { return "stub" }
func (p *stubParser) Model() string { return "stub-model" }

const videoURL = "https://youtu.be/abc"

func TestExtractParsesDescription(t *testing.T) {
	meta := sampleMeta()
	meta.Description = recipe.StringPtr("Onion 1, Roux 2 blocks")
	src := &stubSource{meta: meta}
	parser := &stubParser{recipes: []recipe.Recipe{{Name: recipe.StringPtr("Curry")}}}

	gotMeta, recipes, err := NewVideoExtractor(src, parser).Extract(context.Background(), videoURL)
	require.NoError(t, err)
	assert.Same(t, meta, gotMeta)
	assert.Len(t, recipes, 1)
	assert.Equal(t, []string{"Onion 1, Roux 2 blocks"}, parser.descriptions)
}

func TestExtractSkipsParserWithoutDescription(t *testing.T) {
	src := &stubSource{meta: sampleMeta()}
	parser := &stubParser{}

	meta, recipes, err := NewVideoExtractor(src, parser).Extract(context.Background(), videoURL)
	require.NoError(t, err)
	assert.NotNil(t, meta)
	assert.Empty(t, recipes)
	assert.Empty(t, parser.descriptions)
}

func TestExtractUnsupportedOrMissingVideo(t *testing.T) {
	src := &stubSource{}
	parser := &stubParser{}
	ex := NewVideoExtractor(src, parser)

	meta, _, err := ex.Extract(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Empty(t, src.urls)

	meta, _, err = ex.Extract(context.Background(), videoURL)
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, []string{videoURL}, src.urls)
}

func TestExtractPropagatesParseError(t *testing.T) {
	meta := sampleMeta()
	meta.Description = recipe.StringPtr("text")
	ex := NewVideoExtractor(&stubSource{meta: meta}, &stubParser{err: recipe.ErrParse})

	_, _, err := ex.Extract(context.Background(), videoURL)
	assert.ErrorIs(t, err, recipe.ErrParse)
}

func TestExtractWrapsSourceError(t *testing.T) {
	boom := errors.New("quota exceeded")
	ex := NewVideoExtractor(&stubSource{err: boom}, &stubParser{})

	_, _, err := ex.Extract(context.Background(), videoURL)
	assert.ErrorIs(t, err, boom)
}
