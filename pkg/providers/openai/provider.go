package openaiprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/providers/protocoltypes"
	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

const DefaultModel = "gpt-4o"

type Provider struct {
	client *openai.Client
	model  string
}

func NewProvider(apiKey, model, apiBase string, opts ...option.RequestOption) *Provider {
	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if b := strings.TrimSpace(apiBase); b != "" {
		base = append(base, option.WithBaseURL(strings.TrimRight(b, "/")+"/"))
	}
	client := openai.NewClient(append(base, opts...)...)
	return NewProviderWithClient(&client, model)
}

func NewProviderWithClient(client *openai.Client, model string) *Provider {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Provider{client: client, model: model}
}

func (p *Provider) ParseRecipes(ctx context.Context, description string) ([]recipe.Recipe, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(protocoltypes.SystemPrompt),
			openai.UserMessage(description),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in completion", recipe.ErrParse)
	}

	logger.DebugCF("openai", "Completion received", map[string]any{
		"model":             resp.Model,
		"finish_reason":     resp.Choices[0].FinishReason,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	})

	return protocoltypes.DecodeRecipes(resp.Choices[0].Message.Content)
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Model() string { return p.model }

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
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		pe.Status = apiErr.StatusCode
		pe.Reason = protocoltypes.ReasonForStatus(apiErr.StatusCode)
		fields := map[string]any{
			"status_code": apiErr.StatusCode,
			"api_type":    apiErr.Type,
			"api_code":    apiErr.Code,
			"api_message": apiErr.Message,
		}
		if apiErr.Response != nil {
			fields["request_id"] = apiErr.Response.Header.Get("x-request-id")
		}
		logger.WarnCF("openai", "Chat completion failed", fields)
	}
	return fmt.Errorf("openai chat completion: %w", pe)
}
