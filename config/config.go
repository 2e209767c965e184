package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider    string // openai, openai-sdk, anthropic, ollama
	OpenAIKey      string
	AnthropicKey   string
	LLMModel       string
	LLMBaseURL     string
	LLMAPIShape    string // chat or responses
	LLMTimeout     time.Duration
	LLMMaxRetries  int
	Port           string
	RequestTimeout time.Duration

	MaxContextTokens int

	NotesBackend    string // memory or sqlite
	DatabasePath    string
	NotesMaxAge     time.Duration
	NotesMaxPerUser int
	NotesPruneCron  string

	DiscordToken string

	GeocodingURL string
	WeatherURL   string
}

// ConfigDir is where the installed service keeps its env file.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".copiloto")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

func Load() *Config {
	_ = godotenv.Load()             // ignore error if no .env
	_ = godotenv.Load(ConfigFile()) // installed service config; never overrides .env

	return &Config{
		LLMProvider:    envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		LLMModel:       envOr("LLM_MODEL", os.Getenv("OPENAI_MODEL")),
		LLMBaseURL:     os.Getenv("LLM_BASE_URL"),
		LLMAPIShape:    envOr("LLM_API_SHAPE", "chat"),
		LLMTimeout:     envDuration("LLM_TIMEOUT", 30*time.Second),
		LLMMaxRetries:  envInt("LLM_MAX_RETRIES", 1),
		Port:           envOr("PORT", "3001"),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 60*time.Second),

		MaxContextTokens: envInt("MAX_CONTEXT_TOKENS", 8000),

		NotesBackend:    envOr("NOTES_BACKEND", "memory"),
		DatabasePath:    envOr("DATABASE_PATH", "./data.db"),
		NotesMaxAge:     envDuration("NOTES_MAX_AGE", 0),
		NotesMaxPerUser: envInt("NOTES_MAX_PER_USER", 50),
		NotesPruneCron:  envOr("NOTES_PRUNE_CRON", "0 * * * *"),

		DiscordToken: os.Getenv("DISCORD_BOT_TOKEN"),

		GeocodingURL: os.Getenv("GEOCODING_URL"),
		WeatherURL:   os.Getenv("WEATHER_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envDuration accepts Go durations ("90s", "72h") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
