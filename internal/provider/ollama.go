package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mentionbot/internal/domain"
)

// Ollama implements domain.AIProvider against a local or remote Ollama
// server. It needs no API key.
type Ollama struct {
	botName string
	apiBase string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

type OllamaConfig struct {
	BotName string
	APIBase string
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewOllama(cfg OllamaConfig) *Ollama {
	if cfg.APIBase == "" {
		cfg.APIBase = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.1:8b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGenerateTimeout
	}
	return &Ollama{
		botName: cfg.BotName,
		apiBase: cfg.APIBase,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		client:  &http.Client{},
		logger:  cfg.Logger,
	}
}

func (o *Ollama) Name() string { return "ollama" }

type ollamaRequest struct {
	Model    string      `json:"model"`
	Messages []ollamaMsg `json:"messages"`
	Stream   bool        `json:"stream"`
}

type ollamaMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Message ollamaMsg `json:"message"`
}

// GenerateReply runs one non-streaming chat call under the provider deadline
// and never returns an error.
func (o *Ollama) GenerateReply(ctx context.Context, platform, message string, history []domain.Message, contextJSON string) string {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prompt := BuildPrompt(o.botName, platform, message, history, contextJSON)
	body, _ := json.Marshal(ollamaRequest{
		Model:    o.model,
		Messages: []ollamaMsg{{Role: "user", Content: prompt}},
		Stream:   false,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiBase+"/api/chat", bytes.NewReader(body))
	if err != nil {
		o.logger.Error("ollama request build failed", "err", err)
		return FallbackReply
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			o.logger.Error("ollama timed out", "timeout", o.timeout)
			return timeoutReply("Ollama")
		}
		o.logger.Error("ollama request failed", "err", err)
		return FallbackReply
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		o.logger.Error("ollama error response", "status", resp.StatusCode)
		return FallbackReply
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		o.logger.Error("ollama decode failed", "err", err)
		return FallbackReply
	}
	if out.Message.Content == "" {
		return FallbackReply
	}
	return out.Message.Content
}

// Healthy checks server reachability.
func (o *Ollama) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.apiBase+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned %d", resp.StatusCode)
	}
	return nil
}
