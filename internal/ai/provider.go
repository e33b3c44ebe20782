// Package ai implements text-generation backends for code artifacts.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider is the interface that all generation backends implement.
type Provider interface {
	// Generate sends prompt to the model and returns its completion. A
	// transport failure is an error, never an empty completion.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown provider")

// systemPrompt is sent by providers with a separate system role.
const systemPrompt = "You write Go source code. Reply with code only, no prose."

const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Settings selects and configures a provider.
type Settings struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Proxy     string
	MaxTokens int64
}

// New returns the provider named by s.Provider. When httpClient is nil one is
// built from s.Proxy; Ollama then sends s.APIKey as a bearer token.
func New(s Settings, httpClient *http.Client) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" {
		name = ProviderOllama
	}
	if httpClient == nil {
		var token string
		if name == ProviderOllama {
			token = s.APIKey
		}
		c, err := NewHTTPClient(s.Proxy, token)
		if err != nil {
			return nil, fmt.Errorf("could not create http client: %w", err)
		}
		httpClient = c
	}

	switch name {
	case ProviderOllama:
		return NewOllamaProvider(s.Model, s.BaseURL, httpClient), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(s.Model, s.BaseURL, s.APIKey, s.MaxTokens, httpClient), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(s.Model, s.BaseURL, s.APIKey, s.MaxTokens, httpClient), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
}
