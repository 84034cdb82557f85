package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model. It captures the server
// address, upstream credentials, engagement defaults, and storage location.
// Credentials are never validated at startup; absence is detected per call.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Filters     FiltersConfig     `yaml:"filters"`
	LLM         LLMConfig         `yaml:"llm"`
	Storage     StorageConfig     `yaml:"storage"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type CredentialsConfig struct {
	// X/Twitter API v2 bearer token. If empty, read from env TWITTER_BEARER_TOKEN.
	BearerToken string `yaml:"bearerToken"`
	// RapidAPI proxy key. If empty, read from env RAPIDAPI_KEY.
	RapidAPIKey string `yaml:"rapidApiKey"`
	// OAuth 1.0a credentials for the v1.1 timelines.
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	AccessToken    string `yaml:"accessToken"`
	AccessSecret   string `yaml:"accessSecret"`
}

type FiltersConfig struct {
	// Engagement thresholds; a tweet qualifies if it clears any one.
	MinLikes     int `yaml:"minLikes"`
	MinRetweets  int `yaml:"minRetweets"`
	MinReplies   int `yaml:"minReplies"`
	MinBookmarks int `yaml:"minBookmarks"`
	// Result cap after ranking.
	Limit int `yaml:"limit"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "none"
	Model    string `yaml:"model"`
	// If empty, read from env OPENAI_API_KEY.
	APIKey string `yaml:"apiKey"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Filters: FiltersConfig{MinLikes: 50, MinRetweets: 10, MinReplies: 5, MinBookmarks: 5, Limit: 50},
		LLM:     LLMConfig{Provider: "none", Model: "gpt-4o-mini"},
		Storage: StorageConfig{DBPath: "./curio.db"},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.BearerToken == "" {
		c.Credentials.BearerToken = os.Getenv("TWITTER_BEARER_TOKEN")
	}
	if c.Credentials.RapidAPIKey == "" {
		c.Credentials.RapidAPIKey = os.Getenv("RAPIDAPI_KEY")
	}
	if c.Credentials.ConsumerKey == "" {
		c.Credentials.ConsumerKey = os.Getenv("TWITTER_OAUTH_CONSUMER_KEY")
	}
	if c.Credentials.ConsumerSecret == "" {
		c.Credentials.ConsumerSecret = os.Getenv("TWITTER_OAUTH_CONSUMER_SECRET")
	}
	if c.Credentials.AccessToken == "" {
		c.Credentials.AccessToken = os.Getenv("TWITTER_OAUTH_TOKEN")
	}
	if c.Credentials.AccessSecret == "" {
		c.Credentials.AccessSecret = os.Getenv("TWITTER_OAUTH_TOKEN_SECRET")
	}
	if c.LLM.APIKey == "" && c.LLM.Provider == "openai" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Load reads YAML config from path. An empty path yields the defaults with
// environment overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		cfg.ResolveEnv()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
