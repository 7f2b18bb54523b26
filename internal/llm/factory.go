package llm

import (
	"fmt"
	"os"
)

// ProviderOptions selects and configures a provider.
type ProviderOptions struct {
	Type    string
	Model   string
	BaseURL string
	// APIKey overrides the provider's conventional environment variable.
	APIKey string
}

// NewProvider creates a new LLM provider based on the given options.
// Supported provider types: "openai", "openrouter", "ollama", "anthropic".
func NewProvider(opts ProviderOptions) (Provider, error) {
	switch opts.Type {
	case "openai":
		apiKey, err := credential(opts.APIKey, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewOpenAIProvider(apiKey, opts.Model, opts.BaseURL), nil

	case "openrouter":
		apiKey, err := credential(opts.APIKey, "OPENROUTER_API_KEY")
		if err != nil {
			return nil, err
		}
		if opts.BaseURL != "" {
			return newOpenAICompatible("openrouter", apiKey, opts.Model, opts.BaseURL), nil
		}
		return NewOpenRouterProvider(apiKey, opts.Model), nil

	case "anthropic":
		apiKey, err := credential(opts.APIKey, "ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewAnthropicProvider(apiKey, opts.Model, opts.BaseURL), nil

	case "ollama":
		host := opts.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, opts.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Type)
	}
}

func credential(explicit, envVar string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w: %s environment variable is not set", ErrMissingCredential, envVar)
}
