package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissing reports required configuration that is absent.
var ErrMissing = errors.New("missing required configuration")

// Config holds application configuration.
type Config struct {
	Env             string
	BackendURL      string
	AuthURL         string
	AuthAnonKey     string
	StatePath       string
	HTTPTimeout     time.Duration
	LogLevel        string
	Port            string
	CORSAllowOrigin []string
	JWTSecret       string
	AutoConfirm     bool
	GeminiAPIKey    string
	LLMModel        string
}

// Keys understood by Load. Environment variables use the upper-case form.
const (
	KeyEnv          = "env"
	KeyBackendURL   = "backend_url"
	KeyAuthURL      = "auth_url"
	KeyAuthAnonKey  = "auth_anon_key"
	KeyStatePath    = "state_path"
	KeyHTTPTimeout  = "http_timeout"
	KeyLogLevel     = "log_level"
	KeyPort         = "port"
	KeyCORSOrigins  = "cors_allow_origins"
	KeyJWTSecret    = "jwt_secret"
	KeyAutoConfirm  = "auto_confirm"
	KeyGeminiAPIKey = "gemini_api_key"
	KeyLLMModel     = "llm_model"
)

// NewViper returns a viper instance with defaults, env binding and optional config.yaml.
func NewViper() *viper.Viper {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.SetDefault(KeyEnv, "dev")
	v.SetDefault(KeyStatePath, defaultStatePath())
	v.SetDefault(KeyHTTPTimeout, "30s")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyPort, "8000")
	v.SetDefault(KeyCORSOrigins, "http://localhost:3000")
	v.SetDefault(KeyAutoConfirm, true)
	v.SetDefault(KeyLLMModel, "gemini-2.5-flash")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".internify"))
	}
	_ = v.ReadInConfig()
	return v
}

// Load reads configuration from v (or a fresh NewViper when nil) without validation.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = NewViper()
	}
	timeout, err := parseDuration(v.GetString(KeyHTTPTimeout))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyHTTPTimeout, err)
	}

	return Config{
		Env:             normalizeEnv(v.GetString(KeyEnv)),
		BackendURL:      trimURL(v.GetString(KeyBackendURL)),
		AuthURL:         trimURL(v.GetString(KeyAuthURL)),
		AuthAnonKey:     strings.TrimSpace(v.GetString(KeyAuthAnonKey)),
		StatePath:       strings.TrimSpace(v.GetString(KeyStatePath)),
		HTTPTimeout:     timeout,
		LogLevel:        v.GetString(KeyLogLevel),
		Port:            v.GetString(KeyPort),
		CORSAllowOrigin: splitAndTrim(v.GetString(KeyCORSOrigins)),
		JWTSecret:       v.GetString(KeyJWTSecret),
		AutoConfirm:     v.GetBool(KeyAutoConfirm),
		GeminiAPIKey:    v.GetString(KeyGeminiAPIKey),
		LLMModel:        v.GetString(KeyLLMModel),
	}, nil
}

// LoadClient loads configuration and fails fast when client-required keys are absent.
func LoadClient(v *viper.Viper) (Config, error) {
	cfg, err := Load(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateClient(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateClient checks the backend and auth provider settings.
func (c Config) ValidateClient() error {
	var missing []string
	if c.BackendURL == "" {
		missing = append(missing, "BACKEND_URL")
	}
	if c.AuthURL == "" {
		missing = append(missing, "AUTH_URL")
	}
	if c.AuthAnonKey == "" {
		missing = append(missing, "AUTH_ANON_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".internify", "state.db")
	}
	return filepath.Join(home, ".internify", "state.db")
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}

func trimURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
