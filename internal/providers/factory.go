package providers

import (
	"fmt"

	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/secrets"
)

// Set holds one Driver per supported provider family, built once at
// startup from configuration and an abstract secret source.
type Set struct {
	Ollama      *OllamaClient
	HuggingFace *HuggingFaceClient
	OpenAI      *OpenAIClient
	Anthropic   *AnthropicClient
	Gemini      *GeminiClient
	Groq        *GroqClient
}

// NewSet builds every driver. Cloud drivers are constructed even without a
// key (Complete then fails fast with a non-retriable error); callers should
// still check secrets.Has before attempting a cloud call to avoid a wasted
// round-trip through the retry loop.
func NewSet(cfg *config.Config, sec secrets.Source) *Set {
	return &Set{
		Ollama:      NewOllamaClient(cfg.Providers.OllamaBaseURL),
		HuggingFace: NewHuggingFaceClient(cfg.Providers.HuggingFaceCacheDir, ""),
		OpenAI:      NewOpenAIClient(sec.Get("OPENAI_API_KEY"), ""),
		Anthropic:   NewAnthropicClient(sec.Get("ANTHROPIC_API_KEY"), ""),
		Gemini:      NewGeminiClient(sec.Get("GEMINI_API_KEY"), ""),
		Groq:        NewGroqClient(sec.Get("GROQ_API_KEY"), ""),
	}
}

// ByProviderName returns the Driver for a provider string ("ollama",
// "huggingface", "openai", "anthropic", "gemini", "groq").
func (s *Set) ByProviderName(name string) (Driver, error) {
	switch name {
	case "ollama":
		return s.Ollama, nil
	case "huggingface":
		return s.HuggingFace, nil
	case "openai":
		return s.OpenAI, nil
	case "anthropic":
		return s.Anthropic, nil
	case "gemini":
		return s.Gemini, nil
	case "groq":
		return s.Groq, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
