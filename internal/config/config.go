// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration.
type Config struct {
	Port string

	// Audio
	AudioDir      string
	SampleRate    int
	AudioEncoding string
	DefaultLocale string

	// Storage
	BundleDir   string
	MongoURI    string
	MongoDBName string

	// Credentials
	GeminiAPIKey     string
	ElevenLabsAPIKey string
	JWTSecret        string

	// Dev conveniences
	UseMockAdapters bool
}

// Load reads .env if present, then the environment, applying defaults.
func Load() Config {
	// Missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	return Config{
		Port:             getEnv("PORT", "8080"),
		AudioDir:         getEnv("AUDIO_DIR", "data/audio"),
		SampleRate:       getEnvInt("AUDIO_SAMPLE_RATE", 16000),
		AudioEncoding:    getEnv("AUDIO_ENCODING", "LINEAR16"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en-US"),
		BundleDir:        getEnv("BUNDLE_DIR", "data/bundles"),
		MongoURI:         os.Getenv("MONGODB_URI"),
		MongoDBName:      getEnv("MONGODB_DATABASE", "fieldscope"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		UseMockAdapters:  getEnvBool("USE_MOCK_ADAPTERS", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
