// Package config loads and validates the bot's configuration. Values come
// from an optional YAML file overlaid by environment variables; the
// environment always wins. Validation failures are fatal at startup.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Providers the bot can be configured with. The set is closed: anything else
// is a validation error.
var SupportedProviders = []string{"openai", "gemini", "ollama"}

// Config is the root configuration.
type Config struct {
	General    GeneralConfig    `yaml:"general"`
	Slack      SlackConfig      `yaml:"slack"`
	Provider   ProviderConfig   `yaml:"provider"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
}

type GeneralConfig struct {
	BotName  string `yaml:"botName"`
	LogLevel string `yaml:"logLevel"` // debug | info | warn | error
}

type SlackConfig struct {
	BotToken      string `yaml:"botToken"`
	SigningSecret string `yaml:"signingSecret"`
	ClientID      string `yaml:"clientId"`
	ClientSecret  string `yaml:"clientSecret"`
	RedirectURI   string `yaml:"redirectUri"`
	AppID         string `yaml:"appId"`
}

type ProviderConfig struct {
	Name       string `yaml:"name"` // openai | gemini | ollama
	Model      string `yaml:"model,omitempty"`
	OpenAIKey  string `yaml:"openaiKey,omitempty"`
	GeminiKey  string `yaml:"geminiKey,omitempty"`
	OllamaBase string `yaml:"ollamaBase,omitempty"`
	TimeoutMS  int    `yaml:"timeoutMs,omitempty"` // generation deadline, default 4000
}

type EncryptionConfig struct {
	// KeyHex is the hex encoding of the 32-byte AES key (64 hex chars).
	KeyHex string `yaml:"keyHex"`
}

type CacheConfig struct {
	MaxConversations int `yaml:"maxConversations"`
	MaxMessages      int `yaml:"maxMessages"`
	HistoryLimit     int `yaml:"historyLimit"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"` // token files live here, one per team
}

// Defaults returns the baseline configuration before file and env overlays.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			BotName:  "MentionBot",
			LogLevel: "info",
		},
		Provider: ProviderConfig{
			TimeoutMS: 4000,
		},
		Cache: CacheConfig{
			MaxConversations: 100,
			MaxMessages:      50,
			HistoryLimit:     5,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Storage: StorageConfig{
			Dir: "storage/tokens",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty; a missing file is an error), then environment
// variables. The result is not validated; call Validate.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.General.BotName, "BOT_NAME")
	setString(&c.General.LogLevel, "LOG_LEVEL")
	setString(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	setString(&c.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	setString(&c.Slack.ClientID, "SLACK_CLIENT_ID")
	setString(&c.Slack.ClientSecret, "SLACK_CLIENT_SECRET")
	setString(&c.Slack.RedirectURI, "SLACK_REDIRECT_URI")
	setString(&c.Slack.AppID, "SLACK_APP_ID")
	setString(&c.Provider.Name, "LLM_PROVIDER")
	setString(&c.Provider.Model, "LLM_MODEL")
	setString(&c.Provider.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.Provider.GeminiKey, "GEMINI_API_KEY")
	setString(&c.Provider.OllamaBase, "OLLAMA_API_BASE")
	setString(&c.Encryption.KeyHex, "ENCRYPTION_KEY")
	setString(&c.Storage.Dir, "STORAGE_DIR")
	setInt(&c.Server.Port, "PORT")
	setInt(&c.Provider.TimeoutMS, "LLM_TIMEOUT_MS")
}

func setString(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks everything the process needs to start. All problems are
// reported at once, joined into a single error.
func (c *Config) Validate() error {
	var errs []error

	if c.Slack.BotToken == "" {
		errs = append(errs, errors.New("slack bot token is required (SLACK_BOT_TOKEN)"))
	}
	if c.Slack.SigningSecret == "" {
		errs = append(errs, errors.New("slack signing secret is required (SLACK_SIGNING_SECRET)"))
	}

	switch c.Provider.Name {
	case "openai":
		if c.Provider.OpenAIKey == "" {
			errs = append(errs, errors.New("openai provider selected but OPENAI_API_KEY is empty"))
		}
	case "gemini":
		if c.Provider.GeminiKey == "" {
			errs = append(errs, errors.New("gemini provider selected but GEMINI_API_KEY is empty"))
		}
	case "ollama":
		// No key needed.
	case "":
		errs = append(errs, fmt.Errorf("provider is required (LLM_PROVIDER), one of %v", SupportedProviders))
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q, must be one of %v", c.Provider.Name, SupportedProviders))
	}

	if _, err := c.EncryptionKey(); err != nil {
		errs = append(errs, err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

// EncryptionKey decodes the configured hex key into the 32 raw bytes the
// token store needs.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.Encryption.KeyHex == "" {
		return nil, errors.New("encryption key is required (ENCRYPTION_KEY, 64 hex chars)")
	}
	key, err := hex.DecodeString(c.Encryption.KeyHex)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
