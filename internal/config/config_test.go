package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func validConfig() *Config {
	cfg := Defaults()
	cfg.Slack.BotToken = "xoxb-token"
	cfg.Slack.SigningSecret = "secret"
	cfg.Provider.Name = "ollama"
	cfg.Encryption.KeyHex = validKeyHex
	return cfg
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing bot token", func(c *Config) { c.Slack.BotToken = "" }, "bot token"},
		{"missing signing secret", func(c *Config) { c.Slack.SigningSecret = "" }, "signing secret"},
		{"missing provider", func(c *Config) { c.Provider.Name = "" }, "provider is required"},
		{"unknown provider", func(c *Config) { c.Provider.Name = "claude" }, "unknown provider"},
		{"openai without key", func(c *Config) { c.Provider.Name = "openai" }, "OPENAI_API_KEY"},
		{"gemini without key", func(c *Config) { c.Provider.Name = "gemini" }, "GEMINI_API_KEY"},
		{"missing encryption key", func(c *Config) { c.Encryption.KeyHex = "" }, "encryption key"},
		{"non-hex encryption key", func(c *Config) { c.Encryption.KeyHex = strings.Repeat("zz", 32) }, "not valid hex"},
		{"short encryption key", func(c *Config) { c.Encryption.KeyHex = "abcd" }, "32 bytes"},
		{"bad port", func(c *Config) { c.Server.Port = -1 }, "invalid port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Defaults() // everything required is missing
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"bot token", "signing secret", "provider", "encryption key"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("aggregated error missing %q: %v", want, err)
		}
	}
}

func TestLoad_FileThenEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	file := `
general:
  botName: FileBot
slack:
  botToken: xoxb-from-file
provider:
  name: gemini
  geminiKey: file-key
`
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BOT_NAME", "EnvBot")
	t.Setenv("PORT", "8080")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.BotName != "EnvBot" {
		t.Errorf("env should override file: got %q", cfg.General.BotName)
	}
	if cfg.Slack.BotToken != "xoxb-from-file" {
		t.Errorf("file value lost: got %q", cfg.Slack.BotToken)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("PORT override lost: got %d", cfg.Server.Port)
	}
	if cfg.Cache.MaxConversations != 100 {
		t.Errorf("default lost: got %d", cfg.Cache.MaxConversations)
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEncryptionKey_Decodes(t *testing.T) {
	cfg := validConfig()
	key, err := cfg.EncryptionKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != 32 || key[0] != 0x00 || key[31] != 0x1f {
		t.Errorf("unexpected key bytes: %x", key)
	}
}
