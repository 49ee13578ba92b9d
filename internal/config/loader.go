package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kubilitics/promits/internal/apperr"
	"github.com/kubilitics/promits/internal/prom"
)

const (
	configDirName  = ".promits"
	configFileName = "config.yaml"
	envPrefix      = "PROMITS"
)

// FlagKeys maps command-line flag names to config keys. Flags listed here
// override every other source when they are set.
var FlagKeys = map[string]string{
	"query":        "query",
	"step":         "step",
	"timeout":      "timeout",
	"model":        "model",
	"days":         "lookback_days",
	"output":       "output",
	"tokenizer":    "tokenizer",
	"metrics-file": "metrics_file",
	"log-level":    "log.level",
	"log-file":     "log.file",
}

// Options control where Load looks.
type Options struct {
	// ConfigFile is an explicit YAML path. When empty the default
	// ~/.promits/config.yaml is read if it exists.
	ConfigFile string
	// DotEnv lists .env files to load into the process environment. Missing
	// files are ignored. Variables already set are not overwritten.
	DotEnv []string
	// Flags, when set, are bound per FlagKeys.
	Flags *pflag.FlagSet
}

// DefaultFilePath returns ~/.promits/config.yaml.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// LoadDotEnv loads each existing file into the environment.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return apperr.NewConfig("load %s: %v", f, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("query", prom.DefaultCPUQuery)
	v.SetDefault("step", prom.DefaultStep)
	v.SetDefault("timeout", prom.DefaultTimeout)
	v.SetDefault("model", "")
	v.SetDefault("lookback_days", 0)
	v.SetDefault("output", OutputText)
	v.SetDefault("tokenizer", TokenizerHeuristic)
	v.SetDefault("metrics_file", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)
}

// Load resolves the configuration and validates it. Any failure is an
// apperr.Config error.
func Load(opts Options) (*Config, error) {
	if err := LoadDotEnv(opts.DotEnv...); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// The required settings keep their unprefixed names.
	for key, env := range map[string]string{
		"prometheus_base_url": EnvPrometheusBaseURL,
		"anthropic_base_url":  EnvAnthropicBaseURL,
		"anthropic_api_key":   EnvAnthropicAPIKey,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, apperr.NewConfig("bind %s: %v", env, err)
		}
	}

	if err := readFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, apperr.NewConfig("bind flag --%s: %v", name, err)
			}
		}
	}

	cfg := &Config{
		PrometheusBaseURL: strings.TrimSpace(v.GetString("prometheus_base_url")),
		AnthropicBaseURL:  strings.TrimSpace(v.GetString("anthropic_base_url")),
		AnthropicAPIKey:   strings.TrimSpace(v.GetString("anthropic_api_key")),
		Query:             strings.TrimSpace(v.GetString("query")),
		Step:              strings.TrimSpace(v.GetString("step")),
		Timeout:           v.GetDuration("timeout"),
		Model:             strings.TrimSpace(v.GetString("model")),
		LookbackDays:      v.GetInt("lookback_days"),
		Output:            strings.ToLower(strings.TrimSpace(v.GetString("output"))),
		Tokenizer:         strings.ToLower(strings.TrimSpace(v.GetString("tokenizer"))),
		MetricsFile:       strings.TrimSpace(v.GetString("metrics_file")),
		Log: LogConfig{
			Level:      strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
			File:       strings.TrimSpace(v.GetString("log.file")),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(v *viper.Viper, explicit string) error {
	path := explicit
	if path == "" {
		def, err := DefaultFilePath()
		if err != nil {
			return nil
		}
		if _, err := os.Stat(def); err != nil {
			return nil
		}
		path = def
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return apperr.NewConfig("read config file %s: %v", path, err)
	}
	return nil
}

// Describe lists where each required setting can come from, for error help.
func Describe() string {
	path, err := DefaultFilePath()
	if err != nil {
		path = filepath.Join("~", configDirName, configFileName)
	}
	return fmt.Sprintf("set %s, %s and %s in the environment, a .env file, or %s",
		EnvPrometheusBaseURL, EnvAnthropicBaseURL, EnvAnthropicAPIKey, path)
}
