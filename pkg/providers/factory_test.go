package providers

import (
	"strings"
	"testing"
)

func TestResolveProviderSelection(t *testing.T) {
	tests := []struct {
		name          string
		cfg           Config
		wantType      providerType
		wantModel     string
		wantErrSubstr string
	}{
		{
			name:      "empty provider defaults to openai",
			cfg:       Config{OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o"},
			wantType:  providerTypeOpenAI,
			wantModel: "gpt-4o",
		},
		{
			name:      "claude alias routes to anthropic",
			cfg:       Config{Provider: "Claude", AnthropicAPIKey: "ak", AnthropicModel: "claude-sonnet-4-5"},
			wantType:  providerTypeAnthropic,
			wantModel: "claude-sonnet-4-5",
		},
		{
			name:          "openai without key fails",
			cfg:           Config{Provider: "openai"},
			wantErrSubstr: "OPENAI_API_KEY",
		},
		{
			name:          "anthropic without key fails",
			cfg:           Config{Provider: "anthropic", OpenAIAPIKey: "sk-test"},
			wantErrSubstr: "ANTHROPIC_API_KEY",
		},
		{
			name:          "unknown provider fails",
			cfg:           Config{Provider: "gemini"},
			wantErrSubstr: "unknown parser provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveProviderSelection(tt.cfg)
			if tt.wantErrSubstr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErrSubstr) {
					t.Fatalf("error = %v, want substring %q", err, tt.wantErrSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveProviderSelection() error = %v", err)
			}
			if got.providerType != tt.wantType {
				t.Errorf("providerType = %v, want %v", got.providerType, tt.wantType)
			}
			if got.model != tt.wantModel {
				t.Errorf("model = %q, want %q", got.model, tt.wantModel)
			}
		})
	}
}

func TestCreateParser(t *testing.T) {
	p, err := CreateParser(Config{OpenAIAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("CreateParser() error = %v", err)
	}
	if p.Name() != "openai" || p.Model() != "gpt-4o" {
		t.Errorf("got %s/%s, want openai/gpt-4o", p.Name(), p.Model())
	}

	p, err = CreateParser(Config{Provider: "anthropic", AnthropicAPIKey: "ak"})
	if err != nil {
		t.Fatalf("CreateParser() error = %v", err)
	}
	if p.Name() != "anthropic" || p.Model() != "claude-sonnet-4-5" {
		t.Errorf("got %s/%s, want anthropic/claude-sonnet-4-5", p.Name(), p.Model())
	}
}
