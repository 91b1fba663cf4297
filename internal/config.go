package internal

import (
	"os"
	"strings"
)

// Config holds all deployment settings. It is assembled once at startup
// and handed to the server at construction time; nothing in the request
// path reads the environment directly.
type Config struct {
	Port           string
	OpenAIAPIKey   string
	ManimBin       string
	OutputDir      string
	AllowedOrigins []string
	JWTSecretKey   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// LoadConfig reads the configuration from environment variables,
// applying the same defaults the original deployment used.
func LoadConfig() Config {
	cfg := Config{
		Port:         envOr("PORT", "8000"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		ManimBin:     envOr("MANIM_BIN", "manim"),
		OutputDir:    envOr("OUTPUT_DIR", "outputs"),
		JWTSecretKey: os.Getenv("JWT_SECRET_KEY"),
		DBHost:       envOr("DB_HOST", "localhost"),
		DBPort:       envOr("DB_PORT", "5432"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       envOr("DB_NAME", "animations"),
	}

	// Comma-separated allowlist; "*" allows any origin. Defaults to the
	// local Vite dev servers the frontend runs on.
	origins := envOr("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
