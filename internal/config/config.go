package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the triage API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tiers      []TierConfig     `yaml:"tiers"`
	Safety     SafetyConfig     `yaml:"safety"`
	Cache      CacheConfig      `yaml:"cache"`
	Prediction PredictionConfig `yaml:"prediction"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// TierConfig describes one inference tier in priority order.
type TierConfig struct {
	ID     string `yaml:"id"`
	Scheme string `yaml:"scheme"` // graded, weighted_kb, binary_enhanced
	Bundle string `yaml:"bundle"` // model bundle path; required for classifier schemes
	KB     string `yaml:"kb"`     // knowledge base path; empty uses the embedded default
}

// SafetyConfig holds the safety adjustment policy.
type SafetyConfig struct {
	CriticalKeywords        []string `yaml:"critical_keywords"` // empty uses the built-in list
	Ceiling                 float64  `yaml:"confidence_ceiling"`
	Floor                   float64  `yaml:"confidence_floor"`
	LowConfidenceTop        float64  `yaml:"low_confidence_top"`
	SingleSymptomMultiplier float64  `yaml:"single_symptom_multiplier"`
}

// CacheConfig holds result cache settings. Empty addrs disables caching.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PredictionConfig holds per-request inference settings.
type PredictionConfig struct {
	TimeoutSec      int  `yaml:"timeout_sec"`
	TopK            int  `yaml:"top_k"`
	FallbackOnError bool `yaml:"fallback_on_error"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Safety.Ceiling <= 0 {
		c.Safety.Ceiling = 0.85
	}
	if c.Safety.Floor <= 0 {
		c.Safety.Floor = 0.03
	}
	if c.Safety.LowConfidenceTop <= 0 {
		c.Safety.LowConfidenceTop = 0.15
	}
	if c.Safety.SingleSymptomMultiplier <= 0 {
		c.Safety.SingleSymptomMultiplier = 0.4
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "triage:assessment:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Prediction.TimeoutSec <= 0 {
		c.Prediction.TimeoutSec = 5
	}
	if c.Prediction.TopK <= 0 {
		c.Prediction.TopK = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("tiers is required")
	}
	seen := make(map[string]bool, len(c.Tiers))
	for i, t := range c.Tiers {
		if t.ID == "" {
			return fmt.Errorf("tiers[%d].id is required", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("tiers[%d].id %q is duplicated", i, t.ID)
		}
		seen[t.ID] = true
		switch t.Scheme {
		case "graded", "binary_enhanced":
			if t.Bundle == "" {
				return fmt.Errorf("tiers[%d].bundle is required for scheme %q", i, t.Scheme)
			}
		case "weighted_kb":
			// kb is optional, the embedded default applies
		default:
			return fmt.Errorf(
				"tiers[%d].scheme must be \"graded\", \"weighted_kb\" or \"binary_enhanced\", got %q",
				i, t.Scheme,
			)
		}
	}
	if c.Safety.Floor >= c.Safety.Ceiling {
		return fmt.Errorf("safety.confidence_floor %v must be below safety.confidence_ceiling %v",
			c.Safety.Floor, c.Safety.Ceiling)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
