package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/antoniostano/jaal/internal/classify"
)

// Config contains all runtime settings for the conversation intelligence
// service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	// APIKey guards the /v1 management surface. Empty disables auth, which
	// is only sensible on localhost.
	APIKey string

	AllowAnyOrigin bool

	// SessionStoreURL selects the session backend by scheme: memory://,
	// redis://host:port/db or postgres://... .
	SessionStoreURL    string
	SessionTTL         time.Duration
	SessionIdleTimeout time.Duration
	JanitorInterval    time.Duration

	// DatabaseURL, when set, backs the report archive with Postgres;
	// otherwise reports are kept in memory.
	DatabaseURL string

	// CallbackURL receives the final intelligence report. Empty disables
	// delivery.
	CallbackURL    string
	CallbackAPIKey string

	NATSURL   string
	NATSToken string

	// TemplatePackPath overrides the embedded reply templates.
	TemplatePackPath string

	Classifier classify.Params
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:           envOrDefault("JAAL_BIND_ADDR", ":8080"),
		MetricsNamespace:   envOrDefault("JAAL_METRICS_NAMESPACE", "jaal"),
		APIKey:             stringsTrimSpace("JAAL_API_KEY"),
		AllowAnyOrigin:     false,
		SessionStoreURL:    envOrDefault("JAAL_SESSION_STORE_URL", "memory://"),
		DatabaseURL:        stringsTrimSpace("DATABASE_URL"),
		CallbackURL:        stringsTrimSpace("JAAL_CALLBACK_URL"),
		CallbackAPIKey:     stringsTrimSpace("JAAL_CALLBACK_API_KEY"),
		NATSURL:            stringsTrimSpace("JAAL_NATS_URL"),
		NATSToken:          stringsTrimSpace("JAAL_NATS_TOKEN"),
		TemplatePackPath:   stringsTrimSpace("JAAL_TEMPLATE_PACK"),
		ShutdownTimeout:    15 * time.Second,
		SessionTTL:         24 * time.Hour,
		SessionIdleTimeout: 30 * time.Minute,
		JanitorInterval:    time.Minute,
		Classifier:         classify.DefaultParams(),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("JAAL_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL, err = durationFromEnv("JAAL_SESSION_TTL", cfg.SessionTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionIdleTimeout, err = durationFromEnv("JAAL_SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("JAAL_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("JAAL_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	cfg.Classifier.DetectionThreshold, err = floatFromEnv("JAAL_DETECTION_THRESHOLD", cfg.Classifier.DetectionThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.Classifier.PersonaThreshold, err = floatFromEnv("JAAL_PERSONA_THRESHOLD", cfg.Classifier.PersonaThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.Classifier.DecayRate, err = floatFromEnv("JAAL_DECAY_RATE", cfg.Classifier.DecayRate)
	if err != nil {
		return Config{}, err
	}
	cfg.Classifier.DecayAfterTurns, err = intFromEnv("JAAL_DECAY_AFTER_TURNS", cfg.Classifier.DecayAfterTurns)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionIdleTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("JAAL_SESSION_IDLE_TIMEOUT must be at least 5s")
	}
	if cfg.SessionTTL < cfg.SessionIdleTimeout {
		return Config{}, fmt.Errorf("JAAL_SESSION_TTL must not be shorter than the idle timeout")
	}
	if cfg.JanitorInterval <= 0 {
		return Config{}, fmt.Errorf("JAAL_JANITOR_INTERVAL must be positive")
	}
	if cfg.Classifier.DetectionThreshold <= 0 || cfg.Classifier.DetectionThreshold > 1 {
		return Config{}, fmt.Errorf("JAAL_DETECTION_THRESHOLD must be in (0, 1]")
	}
	if cfg.Classifier.PersonaThreshold <= 0 || cfg.Classifier.PersonaThreshold > cfg.Classifier.DetectionThreshold {
		return Config{}, fmt.Errorf("JAAL_PERSONA_THRESHOLD must be in (0, detection threshold]")
	}
	if cfg.Classifier.DecayRate < 0 || cfg.Classifier.DecayRate >= 1 {
		return Config{}, fmt.Errorf("JAAL_DECAY_RATE must be in [0, 1)")
	}
	if cfg.Classifier.DecayAfterTurns < 1 {
		return Config{}, fmt.Errorf("JAAL_DECAY_AFTER_TURNS must be at least 1")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
