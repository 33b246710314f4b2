package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	Model             string
	ExtractModel      string
	OpenAITimeout     time.Duration
	OpenAIMaxTokens   int
	OpenAITemperature float32
	MaxMemoryMessages int
	KnowledgeDir      string
	KnowledgeCacheTTL time.Duration
	PromptsPath       string

	ElevenAPIKey  string
	ElevenBaseURL string
	ElevenVoiceID string
	ElevenModel   string
	ElevenTimeout time.Duration

	LogLevel         string
	LogFile          string
	Debug            bool
	MetricsNamespace string
}

// Load reads configuration from the environment, loading a .env file first
// when one is present.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := Config{
		Port:             getEnvDefault("PORT", "8080"),
		AllowedOrigin:    getEnvDefault("ALLOWED_ORIGIN", "*"),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:    strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Model:            getEnvDefault("OPENAI_MODEL", "gpt-4o"),
		ExtractModel:     getEnvDefault("OPENAI_EXTRACT_MODEL", "gpt-3.5-turbo"),
		KnowledgeDir:     getEnvDefault("KNOWLEDGE_DIR", "./knowledge"),
		PromptsPath:      getEnvDefault("PROMPTS_PATH", "./prompts/assistant.yaml"),
		ElevenAPIKey:     strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		ElevenBaseURL:    getEnvDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		ElevenVoiceID:    getEnvDefault("ELEVENLABS_VOICE_ID", "pNInz6obpgDQGcFmaJgB"),
		ElevenModel:      getEnvDefault("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		LogLevel:         getEnvDefault("LOG_LEVEL", "info"),
		LogFile:          strings.TrimSpace(os.Getenv("LOG_FILE")),
		Debug:            getEnvBoolDefault("DEBUG", false),
		MetricsNamespace: getEnvDefault("METRICS_NAMESPACE", "kiosk"),
	}

	var err error
	if cfg.OpenAITimeout, err = getEnvDurationDefault("OPENAI_TIMEOUT", 60*time.Second); err != nil {
		return cfg, err
	}
	if cfg.ElevenTimeout, err = getEnvDurationDefault("ELEVENLABS_TIMEOUT", 120*time.Second); err != nil {
		return cfg, err
	}
	if cfg.KnowledgeCacheTTL, err = getEnvDurationDefault("KNOWLEDGE_CACHE_TTL", time.Hour); err != nil {
		return cfg, err
	}
	if cfg.OpenAIMaxTokens, err = getEnvIntDefault("OPENAI_MAX_TOKENS", 1500); err != nil {
		return cfg, err
	}
	if cfg.MaxMemoryMessages, err = getEnvIntDefault("MAX_MEMORY_MESSAGES", 20); err != nil {
		return cfg, err
	}
	temp, err := getEnvFloatDefault("OPENAI_TEMPERATURE", 0.6)
	if err != nil {
		return cfg, err
	}
	cfg.OpenAITemperature = float32(temp)

	if cfg.OpenAIAPIKey == "" {
		slog.Warn("OPENAI_API_KEY is not set; chat and extraction will fail until provided")
	}
	if cfg.ElevenAPIKey == "" {
		slog.Warn("ELEVENLABS_API_KEY is not set; text-to-speech is disabled")
	}
	return cfg, nil
}

func getEnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvIntDefault(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloatDefault(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDurationDefault(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
