// Package config loads server settings from an optional YAML file and
// MINDFUL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix         = "MINDFUL_"
	maxConfigFileSize = 1 << 20
)

type Config struct {
	Addr           string        `koanf:"addr"`
	SQLitePath     string        `koanf:"sqlite_path"`
	MigrationsDir  string        `koanf:"migrations_dir"`
	LegacySnapshot string        `koanf:"legacy_snapshot"`
	LegacyOwner    string        `koanf:"legacy_owner"`
	CatalogPath    string        `koanf:"catalog_path"`
	JWTSecret      string        `koanf:"jwt_secret"`
	TokenTTL       time.Duration `koanf:"token_ttl"`
	SessionTTL     time.Duration `koanf:"session_ttl"`
	LogLevel       string        `koanf:"log_level"`
	LogFormat      string        `koanf:"log_format"`
	StaticDir      string        `koanf:"static_dir"`
	CORSOrigins    []string      `koanf:"cors_origins"`

	// DisabledQuestions and QuestionOrder adjust the catalog at startup.
	DisabledQuestions []string `koanf:"disabled_questions"`
	QuestionOrder     []string `koanf:"question_order"`

	Commit    string `koanf:"commit"`
	BuildTime string `koanf:"build_time"`
}

// Load reads path (when non-empty and present), then applies env overrides
// such as MINDFUL_SQLITE_PATH -> sqlite_path, then fills defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// comma-separated lists arrive from env as a single string
	for key, dst := range map[string]*[]string{
		"cors_origins":       &cfg.CORSOrigins,
		"disabled_questions": &cfg.DisabledQuestions,
		"question_order":     &cfg.QuestionOrder,
	} {
		if raw, ok := k.Get(key).(string); ok {
			*dst = splitList(raw)
		}
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return os.ReadFile(path)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
}

func (c *Config) Validate() error {
	if c.TokenTTL < 0 || c.SessionTTL < 0 {
		return errors.New("durations must not be negative")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	return nil
}
