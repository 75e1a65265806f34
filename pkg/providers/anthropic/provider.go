package anthropicprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zhaopengme/recipeclaw/pkg/providers/protocoltypes"
	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-sonnet-4-5"
)

type Provider struct {
	client  *anthropic.Client
	model   string
	baseURL string
}

func NewProvider(apiKey, model string) *Provider {
	return NewProviderWithBaseURL(apiKey, model, "")
}

func NewProviderWithBaseURL(apiKey, model, apiBase string) *Provider {
	baseURL := normalizeBaseURL(apiBase)
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return NewProviderWithClient(&client, model, baseURL)
}

func NewProviderWithClient(client *anthropic.Client, model, baseURL string) *Provider {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Provider{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}
}

func (p *Provider) ParseRecipes(ctx context.Context, description string) ([]recipe.Recipe, error) {
	resp, err := p.client.Messages.New(ctx, buildParams(p.model, description))
	if err != nil {
		return nil, p.wrapError(err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.AsText().Text)
		}
	}

	return protocoltypes.DecodeRecipes(reply.String())
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Model() string { return p.model }

func (p *Provider) BaseURL() string { return p.baseURL }

func buildParams(model, description string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: protocoltypes.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(description)),
		},
		Temperature: anthropic.Float(0),
	}
}

func (p *Provider) wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	pe := &protocoltypes.ProviderError{
		Reason:   protocoltypes.ReasonUnknown,
		Provider: p.Name(),
		Model:    p.model,
		Wrapped:  err,
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		pe.Status = apiErr.StatusCode
		pe.Reason = protocoltypes.ReasonForStatus(apiErr.StatusCode)
	}
	return fmt.Errorf("anthropic messages: %w", pe)
}

func normalizeBaseURL(apiBase string) string {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		return defaultBaseURL
	}

	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1")
	if base == "" {
		return defaultBaseURL
	}

	return base
}
