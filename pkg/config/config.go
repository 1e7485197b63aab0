package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Logging  LoggingConfig `mapstructure:"logging"`
	Provider string        `mapstructure:"provider"` // Selected provider: ollama, openai
	Ollama   OllamaConfig  `mapstructure:"ollama"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	NATS     NATSConfig    `mapstructure:"nats"`
	Chat     ChatConfig    `mapstructure:"chat"`
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// OllamaConfig holds Ollama-specific configuration.
type OllamaConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

// OpenAIConfig holds OpenAI-specific configuration. The API key comes
// from the environment, not the settings file.
type OpenAIConfig struct {
	Model string `mapstructure:"model"`
}

// NATSConfig holds the durable chat log connection settings.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ChatConfig holds assistant behavior settings.
type ChatConfig struct {
	// Owner scopes the persisted chat log. Empty means anonymous: the
	// transcript lives only for the session.
	Owner        string `mapstructure:"owner"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// DefaultSystemPrompt is the assistant persona used when the settings
// file does not override it.
const DefaultSystemPrompt = `You are a world-class legal AI assistant. Your purpose is to provide clear, insightful, and well-structured answers to legal questions.

When responding to a user, adopt the persona of a helpful expert. Your response must be formatted using Markdown for readability. Use headings, subheadings, bullet points, and bold text to organize the information effectively and naturally.

For any given query, your answer should be comprehensive. When appropriate, include sections on:
- Key legal principles involved.
- Relevant legal history and context.
- Landmark court cases that have shaped the law, explaining the ruling and its impact.

Your response should flow naturally, like a conversation with an expert, not like a rigid report. Break down complex topics into easy-to-understand parts.`

var cfg *Config

// Get returns the global config instance.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment.
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath("./.counsel")
		viper.AddConfigPath(filepath.Join(home, ".counsel"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix("COUNSEL")
	viper.AutomaticEnv()

	// Missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("provider", "ollama")

	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.model", "llama3.1:8b")

	viper.SetDefault("openai.model", "gpt-4o-mini")

	viper.SetDefault("nats.url", "nats://localhost:4222")

	viper.SetDefault("chat.owner", "")
	viper.SetDefault("chat.system_prompt", DefaultSystemPrompt)

	viper.SetDefault("logging.log_file", "counsel.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")
}

// ActiveModel returns the model name for the selected provider.
func (c *Config) ActiveModel() string {
	if c.Provider == "openai" {
		return c.OpenAI.Model
	}
	return c.Ollama.Model
}

// BuildSettingsPath resolves a file name relative to the directory the
// config was loaded from, falling back to the working directory.
func BuildSettingsPath(target string) string {
	if used := viper.ConfigFileUsed(); used != "" {
		return filepath.Join(filepath.Dir(used), target)
	}
	return target
}
