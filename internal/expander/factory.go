package expander

import (
	"fmt"
	"os"
	"strings"
)

// NewFromEnv creates an expander based on environment variables.
// Priority:
//  1. CODESCOUT_EXPANSION_PROVIDER (openai, ollama, none)
//  2. OPENAI_API_KEY present
//  3. Disabled
func NewFromEnv() (Expander, error) {
	provider := strings.ToLower(os.Getenv("CODESCOUT_EXPANSION_PROVIDER"))
	openaiKey := os.Getenv("OPENAI_API_KEY")
	ollamaHost := os.Getenv("OLLAMA_HOST")

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(openaiKey)
	case ProviderOllama:
		return NewOllamaProvider(ollamaHost)
	case ProviderNone:
		return Disabled{}, nil
	case "":
		// Auto-detect.
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrNotConfigured, provider)
	}

	if openaiKey != "" {
		return NewOpenAIProvider(openaiKey)
	}
	return Disabled{}, nil
}
