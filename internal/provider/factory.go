package provider

import (
	"fmt"
	"log/slog"
	"time"

	"mentionbot/internal/config"
	"mentionbot/internal/domain"
)

// New builds the configured AI provider. The provider set is closed; an
// unknown name is a configuration error.
func New(cfg config.ProviderConfig, botName string, logger *slog.Logger) (domain.AIProvider, error) {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond

	switch cfg.Name {
	case "openai":
		return NewOpenAI(OpenAIConfig{
			BotName: botName,
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.Model,
			Timeout: timeout,
			Logger:  logger,
		}), nil
	case "gemini":
		return NewGemini(GeminiConfig{
			BotName: botName,
			APIKey:  cfg.GeminiKey,
			Model:   cfg.Model,
			Timeout: timeout,
			Logger:  logger,
		}), nil
	case "ollama":
		return NewOllama(OllamaConfig{
			BotName: botName,
			APIBase: cfg.OllamaBase,
			Model:   cfg.Model,
			Timeout: timeout,
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("provider: unknown provider %q", cfg.Name)
	}
}
