package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported vision providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// Config holds all configuration for the face analysis service.
type Config struct {
	Server ServerConfig
	Vision VisionConfig
	Log    LogConfig

	// StrictShape makes the analysis endpoint reject replies that do not
	// decode into a fully populated AnalysisResult.
	StrictShape bool
}

// ServerConfig holds HTTP and gRPC listener settings.
type ServerConfig struct {
	Port            string
	GRPCHealthPort  string // empty disables the gRPC health listener
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	GinMode         string
}

// VisionConfig selects and configures the multimodal model backend.
type VisionConfig struct {
	Provider string

	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	OpenAIMaxTokens int

	GeminiAPIKey    string
	GeminiModel     string
	GeminiMaxTokens int
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
	File  string
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			GRPCHealthPort:  os.Getenv("GRPC_HEALTH_PORT"),
			MaxBodyBytes:    int64(getIntEnv("MAX_BODY_BYTES", 15<<20)),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
			GinMode:         getEnv("GIN_MODE", "release"),
		},
		Vision: VisionConfig{
			Provider:        strings.ToLower(getEnv("VISION_PROVIDER", ProviderOpenAI)),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
			OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
			OpenAIMaxTokens: getIntEnv("OPENAI_MAX_TOKENS", 2000),
			GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			GeminiMaxTokens: getIntEnv("GEMINI_MAX_TOKENS", 2000),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		StrictShape: getBoolEnv("STRICT_SHAPE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected provider is known and has credentials.
func (c *Config) Validate() error {
	switch c.Vision.Provider {
	case ProviderOpenAI:
		if c.Vision.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when VISION_PROVIDER=openai")
		}
	case ProviderGemini:
		if c.Vision.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when VISION_PROVIDER=gemini")
		}
	case ProviderStub:
	default:
		return fmt.Errorf("unknown VISION_PROVIDER %q", c.Vision.Provider)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
