// Package config resolves promits settings from defaults, an optional YAML
// file, a .env file, the environment and command-line flags, in that order
// of increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kubilitics/promits/internal/ai"
	"github.com/kubilitics/promits/internal/apperr"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Tokenizer choices for the prompt size estimate.
const (
	TokenizerHeuristic = "heuristic"
	TokenizerTiktoken  = "tiktoken"
)

// Environment variables that carry the required settings.
const (
	EnvPrometheusBaseURL = "PROMETHEUS_BASE_URL"
	EnvAnthropicBaseURL  = "ANTHROPIC_BASE_URL"
	EnvAnthropicAPIKey   = "ANTHROPIC_API_KEY"
)

// MinLookbackDays and MaxLookbackDays bound the query window.
const (
	MinLookbackDays     = 1
	MaxLookbackDays     = 365
	DefaultLookbackDays = 8
)

type Config struct {
	PrometheusBaseURL string        `yaml:"prometheus_base_url"`
	AnthropicBaseURL  string        `yaml:"anthropic_base_url"`
	AnthropicAPIKey   string        `yaml:"anthropic_api_key,omitempty"`
	Query             string        `yaml:"query"`
	Step              string        `yaml:"step"`
	Timeout           time.Duration `yaml:"timeout"`
	// Model is a wire identifier; empty means choose interactively.
	Model        string    `yaml:"model,omitempty"`
	LookbackDays int       `yaml:"lookback_days,omitempty"`
	Output       string    `yaml:"output"`
	Tokenizer    string    `yaml:"tokenizer"`
	MetricsFile  string    `yaml:"metrics_file,omitempty"`
	Log          LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// promDuration matches Prometheus duration strings ("5m", "1h30m") and
// plain float seconds ("300", "15.5").
var promDuration = regexp.MustCompile(`^(([0-9]+(ms|s|m|h|d|w|y))+|[0-9]+(\.[0-9]+)?)$`)

var logLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "error": {},
}

// Validate reports every missing or malformed setting as one Config error.
func (c *Config) Validate() error {
	var problems []string

	for _, req := range []struct{ env, val string }{
		{EnvPrometheusBaseURL, c.PrometheusBaseURL},
		{EnvAnthropicBaseURL, c.AnthropicBaseURL},
		{EnvAnthropicAPIKey, c.AnthropicAPIKey},
	} {
		if strings.TrimSpace(req.val) == "" {
			problems = append(problems, req.env+" not set")
		}
	}
	if msg := checkURL(EnvPrometheusBaseURL, c.PrometheusBaseURL); msg != "" {
		problems = append(problems, msg)
	}
	if msg := checkURL(EnvAnthropicBaseURL, c.AnthropicBaseURL); msg != "" {
		problems = append(problems, msg)
	}
	if strings.TrimSpace(c.Query) == "" {
		problems = append(problems, "query must not be empty")
	}
	if !promDuration.MatchString(c.Step) {
		problems = append(problems, fmt.Sprintf("step %q is not a valid Prometheus duration", c.Step))
	}
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.Model != "" {
		if _, err := ai.ParseModel(c.Model); err != nil {
			problems = append(problems, fmt.Sprintf("model %q is not supported", c.Model))
		}
	}
	if c.LookbackDays != 0 && (c.LookbackDays < MinLookbackDays || c.LookbackDays > MaxLookbackDays) {
		problems = append(problems, fmt.Sprintf("lookback_days must be between %d and %d", MinLookbackDays, MaxLookbackDays))
	}
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		problems = append(problems, fmt.Sprintf("output %q must be one of text, json, yaml", c.Output))
	}
	switch c.Tokenizer {
	case TokenizerHeuristic, TokenizerTiktoken:
	default:
		problems = append(problems, fmt.Sprintf("tokenizer %q must be heuristic or tiktoken", c.Tokenizer))
	}
	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		problems = append(problems, fmt.Sprintf("log level %q must be one of debug, info, warn, error", c.Log.Level))
	}

	if len(problems) > 0 {
		return apperr.NewConfig("%s", strings.Join(problems, "; "))
	}
	return nil
}

func checkURL(name, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Sprintf("%s %q must be an http(s) URL", name, raw)
	}
	return ""
}

// ResolvedModel returns the configured model, or ok=false when none is set.
func (c *Config) ResolvedModel() (ai.Model, bool) {
	if c.Model == "" {
		return 0, false
	}
	m, err := ai.ParseModel(c.Model)
	if err != nil {
		return 0, false
	}
	return m, true
}

// String renders the config with the API key redacted.
func (c Config) String() string {
	key := "<unset>"
	if c.AnthropicAPIKey != "" {
		key = "<redacted>"
	}
	return fmt.Sprintf("prometheus=%s anthropic=%s api_key=%s model=%q lookback_days=%d step=%s timeout=%s output=%s",
		c.PrometheusBaseURL, c.AnthropicBaseURL, key, c.Model, c.LookbackDays, c.Step, c.Timeout, c.Output)
}
