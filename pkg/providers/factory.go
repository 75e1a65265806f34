package providers

import (
	"fmt"
	"strings"

	anthropicprovider "github.com/zhaopengme/recipeclaw/pkg/providers/anthropic"
	openaiprovider "github.com/zhaopengme/recipeclaw/pkg/providers/openai"
)

type providerType int

const (
	providerTypeOpenAI providerType = iota
	providerTypeAnthropic
)

type Config struct {
	Provider string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIAPIBase string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicAPIBase string
}

type providerSelection struct {
	providerType providerType
	apiKey       string
	model        string
	apiBase      string
}

func resolveProviderSelection(cfg Config) (providerSelection, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai", "gpt":
		if cfg.OpenAIAPIKey == "" {
			return providerSelection{}, fmt.Errorf("openai parser requires OPENAI_API_KEY")
		}
		return providerSelection{
			providerType: providerTypeOpenAI,
			apiKey:       cfg.OpenAIAPIKey,
			model:        cfg.OpenAIModel,
			apiBase:      cfg.OpenAIAPIBase,
		}, nil
	case "anthropic", "claude":
		if cfg.AnthropicAPIKey == "" {
			return providerSelection{}, fmt.Errorf("anthropic parser requires ANTHROPIC_API_KEY")
		}
		return providerSelection{
			providerType: providerTypeAnthropic,
			apiKey:       cfg.AnthropicAPIKey,
			model:        cfg.AnthropicModel,
			apiBase:      cfg.AnthropicAPIBase,
		}, nil
	default:
		return providerSelection{}, fmt.Errorf("unknown parser provider %q", cfg.Provider)
	}
}

// CreateParser builds the recipe parser named by cfg.Provider.
func CreateParser(cfg Config) (RecipeParser, error) {
	sel, err := resolveProviderSelection(cfg)
	if err != nil {
		return nil, err
	}

	switch sel.providerType {
	case providerTypeAnthropic:
		return anthropicprovider.NewProviderWithBaseURL(sel.apiKey, sel.model, sel.apiBase), nil
	default:
		return openaiprovider.NewProvider(sel.apiKey, sel.model, sel.apiBase), nil
	}
}
