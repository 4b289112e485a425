package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mentionbot/internal/domain"
)

// OpenAI implements domain.AIProvider against OpenAI-compatible chat APIs.
type OpenAI struct {
	botName string
	apiKey  string
	apiBase string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

type OpenAIConfig struct {
	BotName string
	APIKey  string
	APIBase string
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGenerateTimeout
	}
	return &OpenAI{
		botName: cfg.BotName,
		apiKey:  cfg.APIKey,
		apiBase: cfg.APIBase,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		client:  &http.Client{},
		logger:  cfg.Logger,
	}
}

func (o *OpenAI) Name() string { return "openai" }

type oaiRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

// GenerateReply builds the prompt and runs one chat completion under the
// provider deadline. It never returns an error: failures become fallback
// text.
func (o *OpenAI) GenerateReply(ctx context.Context, platform, message string, history []domain.Message, contextJSON string) string {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prompt := BuildPrompt(o.botName, platform, message, history, contextJSON)
	body, _ := json.Marshal(oaiRequest{
		Model:       o.model,
		Messages:    []oaiMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		o.logger.Error("openai request build failed", "err", err)
		return FallbackReply
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			o.logger.Error("openai timed out", "timeout", o.timeout)
			return timeoutReply("OpenAI")
		}
		o.logger.Error("openai request failed", "err", err)
		return FallbackReply
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		o.logger.Error("openai error response", "status", resp.StatusCode, "body", string(respBody))
		return FallbackReply
	}

	var out oaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		o.logger.Error("openai decode failed", "err", err)
		return FallbackReply
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return FallbackReply
	}
	return out.Choices[0].Message.Content
}

// Healthy checks API reachability and key validity.
func (o *OpenAI) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.apiBase+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai not reachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("openai: invalid API key")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai returned %d", resp.StatusCode)
	}
	return nil
}
