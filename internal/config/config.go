package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Twitter struct {
		BotUserID      uint64 `koanf:"bot_user_id"`
		BotHandle      string `koanf:"bot_handle"`
		BearerToken    string `koanf:"bearer_token"`
		ConsumerKey    string `koanf:"consumer_key"`
		ConsumerSecret string `koanf:"consumer_secret"`
	} `koanf:"twitter"`

	AI struct {
		APIKey      string  `koanf:"api_key"`
		BaseURL     string  `koanf:"base_url"`
		Model       string  `koanf:"model"`
		Temperature float64 `koanf:"temperature"`
		MaxTokens   int     `koanf:"max_tokens"`
	} `koanf:"ai"`

	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Bot struct {
		DryRun          bool `koanf:"dry_run"`
		MaxPollAttempts int  `koanf:"max_poll_attempts"`
	} `koanf:"bot"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"twitter.bot_handle":    "GPTSummary",
		"ai.model":              "gpt-3.5-turbo-instruct",
		"ai.temperature":        0.7,
		"ai.max_tokens":         70,
		"server.port":           8080,
		"bot.max_poll_attempts": 20,
		"log.level":             "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./gptsummary.toml", "$HOME/.gptsummary.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix GPTSUMMARY_
	k.Load(env.Provider("GPTSUMMARY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "GPTSUMMARY_")), "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# GPTSummary Configuration

[twitter]
bot_user_id = 0
bot_handle = "GPTSummary"
bearer_token = "your-app-bearer-token"
consumer_key = "your-consumer-key"
consumer_secret = "your-consumer-secret"

[ai]
api_key = "your-openai-api-key"
model = "gpt-3.5-turbo-instruct"
temperature = 0.7
max_tokens = 70

[server]
port = 8080

[bot]
dry_run = false
max_poll_attempts = 20

[log]
level = "info"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Twitter.BotUserID == 0 {
		return fmt.Errorf("twitter bot_user_id is required")
	}
	if config.Twitter.BearerToken == "" {
		return fmt.Errorf("twitter bearer_token is required")
	}
	if config.Twitter.ConsumerSecret == "" {
		return fmt.Errorf("twitter consumer_secret is required")
	}
	if config.AI.APIKey == "" {
		return fmt.Errorf("ai api_key is required")
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", config.Server.Port)
	}
	return nil
}
