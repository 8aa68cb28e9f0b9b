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
	Server struct {
		Address string `koanf:"address"`
	} `koanf:"server"`

	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`

	AI struct {
		APIKey            string  `koanf:"api_key"`
		Model             string  `koanf:"model"`
		Temperature       float64 `koanf:"temperature"`
		MaxTokens         int     `koanf:"max_tokens"`
		RequestsPerSecond float64 `koanf:"requests_per_second"`
	} `koanf:"ai"`

	Jobs struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"jobs"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.address":         ":8080",
		"ai.model":               "gemini-1.5-flash",
		"ai.temperature":         0.2,
		"ai.max_tokens":          8192,
		"ai.requests_per_second": 5.0,
		"jobs.enabled":           true,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./d5actions.toml", "$HOME/.d5actions.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix D5_. Sections are
	// single words, so only the first underscore separates the section
	// from the key: D5_AI_API_KEY -> ai.api_key.
	k.Load(env.Provider("D5_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "D5_")), "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// DATABASE_URL is the conventional override and wins when set.
	if direct := strings.TrimSpace(os.Getenv("DATABASE_URL")); direct != "" {
		config.Database.URL = direct
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# d5actions Configuration

[server]
address = ":8080"

[database]
url = "postgres://localhost:5432/d5?sslmode=disable"

[ai]
api_key = "your-gemini-api-key"
model = "gemini-1.5-flash"
temperature = 0.2
max_tokens = 8192
requests_per_second = 5.0

[jobs]
enabled = true
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if strings.TrimSpace(config.Database.URL) == "" {
		return fmt.Errorf("database url is required")
	}

	if strings.TrimSpace(config.AI.APIKey) == "" {
		return fmt.Errorf("ai api_key is required")
	}

	if config.AI.Temperature < 0 || config.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be between 0 and 2")
	}

	return nil
}
