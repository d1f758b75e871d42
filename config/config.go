package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"cinetile/services/discovery"
)

// Config holds the process configuration, populated from the environment.
// Provider keys are optional: a missing Gemini key degrades the gemini
// source to preview data, a missing OMDb key skips rating enrichment.
type Config struct {
	Port   int
	Source discovery.SourceMode

	GeminiAPIKey string
	TMDBAPIKey   string
	OMDBAPIKey   string

	// LogFile enables rotating file logging when set; empty means stderr.
	LogFile string

	// AllowedOrigins are trusted for CORS in addition to local origins.
	AllowedOrigins []string

	// RateLimitPerMinute caps discovery requests per client IP. 0 disables
	// the limiter.
	RateLimitPerMinute int
}

const (
	defaultPort      = 8080
	defaultRateLimit = 30
)

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present; real environment
// variables win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env file")
	}

	cfg := &Config{
		Port:               defaultPort,
		Source:             discovery.SourceGemini,
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		TMDBAPIKey:         strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		OMDBAPIKey:         strings.TrimSpace(os.Getenv("OMDB_API_KEY")),
		LogFile:            strings.TrimSpace(os.Getenv("LOG_FILE")),
		RateLimitPerMinute: defaultRateLimit,
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", port)
		}
		cfg.Port = parsed
	}

	if source := strings.ToLower(strings.TrimSpace(os.Getenv("CINETILE_SOURCE"))); source != "" {
		switch source {
		case string(discovery.SourceGemini):
			cfg.Source = discovery.SourceGemini
		case string(discovery.SourceTMDB):
			cfg.Source = discovery.SourceTMDB
		default:
			return nil, fmt.Errorf("invalid CINETILE_SOURCE %q (want gemini or tmdb)", source)
		}
	}

	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if limit := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_MINUTE")); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q", limit)
		}
		cfg.RateLimitPerMinute = parsed
	}

	if cfg.Source == discovery.SourceTMDB && cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("CINETILE_SOURCE=tmdb requires TMDB_API_KEY")
	}

	return cfg, nil
}
