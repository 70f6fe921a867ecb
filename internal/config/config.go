package config

import (
	"errors"
	"fmt"
	"os"
)

type Config struct {
	ListenAddr      string
	LocalBackend    string
	DBPath          string
	LocalDataDir    string
	CloudBackend    string
	DatabaseURL     string
	RealtimeBackend string
	RedisURL        string
	AuthSigningKey  string
	AuthIssuer      string
	SessionToken    string
	SuggestBackend  string
	OllamaHost      string
	OllamaModel     string
	ClaudeAPIKey    string
	ClaudeModel     string
	ClaudeBaseURL   string
	LogLevel        string
	LogFormat       string
	LogFile         string
}

func Load() *Config {
	return &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		LocalBackend:    getEnv("LOCAL_BACKEND", "sqlite"),
		DBPath:          getEnv("DB_PATH", "/data/listsync.db"),
		LocalDataDir:    getEnv("LOCAL_DATA_DIR", "/data/blobs"),
		CloudBackend:    getEnv("CLOUD_BACKEND", "none"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RealtimeBackend: getEnv("REALTIME_BACKEND", "postgres"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AuthSigningKey:  getEnv("AUTH_SIGNING_KEY", ""),
		AuthIssuer:      getEnv("AUTH_ISSUER", "listsync"),
		SessionToken:    getEnv("SESSION_TOKEN", ""),
		SuggestBackend:  getEnv("SUGGEST_BACKEND", "none"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.2"),
		ClaudeAPIKey:    getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:     getEnv("CLAUDE_MODEL", "claude-3-5-haiku-latest"),
		ClaudeBaseURL:   getEnv("CLAUDE_BASE_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		LogFile:         getEnv("LOG_FILE", ""),
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	switch c.LocalBackend {
	case "sqlite", "file":
	default:
		errs = append(errs, fmt.Errorf("unknown LOCAL_BACKEND %q", c.LocalBackend))
	}
	switch c.CloudBackend {
	case "none":
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when CLOUD_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CLOUD_BACKEND %q", c.CloudBackend))
	}
	if c.CloudBackend != "none" {
		if c.AuthSigningKey == "" {
			errs = append(errs, errors.New("AUTH_SIGNING_KEY is required when cloud sync is enabled"))
		}
		switch c.RealtimeBackend {
		case "postgres", "redis":
		default:
			errs = append(errs, fmt.Errorf("unknown REALTIME_BACKEND %q", c.RealtimeBackend))
		}
	}
	switch c.SuggestBackend {
	case "none", "ollama":
	case "claude":
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required when SUGGEST_BACKEND=claude"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SUGGEST_BACKEND %q", c.SuggestBackend))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
