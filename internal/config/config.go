// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/joho/godotenv"
)

// NOTE: Default is 8111 to avoid conflicts with other projects (not 8080)
const DefaultPort = "8111"

// LLM providers accepted by LLM_PROVIDER.
const (
	ProviderNone      = "none"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Port           string
	UseMemoryStore bool
	SkipAuth       bool
	Env            string

	ProjectID       string
	CredentialsFile string

	MLServiceURL  string
	ReceiptBucket string

	LLMProvider    string
	GeminiModel    string
	AnthropicModel string
	AnthropicKey   string

	LogLevel  string
	LogFormat string

	Windows analytics.Windows
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		Port:            get("PORT", DefaultPort),
		Env:             get("ENV", "production"),
		SkipAuth:        get("SKIP_AUTH", "") == "true",
		ProjectID:       get("GOOGLE_CLOUD_PROJECT", ""),
		CredentialsFile: get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		MLServiceURL:    get("ML_SERVICE_URL", ""),
		ReceiptBucket:   get("RECEIPT_BUCKET", ""),
		LLMProvider:     strings.ToLower(get("LLM_PROVIDER", ProviderNone)),
		GeminiModel:     get("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicModel:  get("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		AnthropicKey:    get("ANTHROPIC_API_KEY", ""),
		LogLevel:        get("LOG_LEVEL", "info"),
		LogFormat:       get("LOG_FORMAT", "console"),
	}
	cfg.UseMemoryStore = get("USE_MEMORY_STORE", "") == "true" || cfg.Env == "local"

	var errs []error
	windows := analytics.DefaultWindows()
	for _, w := range []struct {
		key string
		dst *int
	}{
		{"ANALYSIS_GENERAL_MONTHS", &windows.GeneralMonths},
		{"ANALYSIS_FORECAST_MONTHS", &windows.ForecastMonths},
		{"ANALYSIS_ADVISOR_MONTHS", &windows.AdvisorMonths},
		{"ANALYSIS_ANOMALY_DAYS", &windows.AnomalyDays},
	} {
		raw := get(w.key, "")
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", w.key, raw))
			continue
		}
		*w.dst = n
	}
	if err := windows.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analysis windows: %w", err))
	}
	cfg.Windows = windows

	switch cfg.LLMProvider {
	case ProviderNone, ProviderGemini:
	case ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			errs = append(errs, errors.New("LLM_PROVIDER=anthropic requires ANTHROPIC_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER: unknown provider %q", cfg.LLMProvider))
	}
	if !cfg.UseMemoryStore && cfg.ProjectID == "" {
		errs = append(errs, errors.New("GOOGLE_CLOUD_PROJECT is required unless USE_MEMORY_STORE=true or ENV=local"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}
