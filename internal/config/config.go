package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures credentials, API pacing, analysis modes and the model artifact.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	API         APIConfig         `yaml:"api"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Model       ModelConfig       `yaml:"model"`
	Report      ReportConfig      `yaml:"report"`
	Storage     StorageConfig     `yaml:"storage"`
	Cache       CacheConfig       `yaml:"cache"`
	Server      ServerConfig      `yaml:"server"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
}

type CredentialsConfig struct {
	// X API bearer token. If empty, read from env X_BEARER_TOKEN
	BearerToken string `yaml:"bearerToken"`
}

type APIConfig struct {
	BaseURL        string `yaml:"baseURL"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxAttempts    int    `yaml:"maxAttempts"`
	// Base backoff between retries, doubled per attempt
	BackoffMillis int     `yaml:"backoffMillis"`
	RPS           float64 `yaml:"rps"`
	Burst         int     `yaml:"burst"`
}

const (
	FeaturesCompat   = "compat"
	FeaturesExtended = "extended"

	WordLengthLast    = "last"
	WordLengthRunning = "running"
)

type AnalysisConfig struct {
	DefaultPostCount int `yaml:"defaultPostCount"`
	MaxPostCount     int `yaml:"maxPostCount"`
	// "compat" leaves the unused text slots at zero; "extended" fills them
	Features string `yaml:"features"`
	// "last" keeps the last text's word lengths; "running" tracks all texts
	WordLength string `yaml:"wordLength"`
}

const (
	ModelBackendONNX = "onnx"
	ModelBackendExec = "exec"
)

type ModelConfig struct {
	Backend string `yaml:"backend"` // "onnx" or "exec"
	Path    string `yaml:"path"`
	// Shared onnxruntime library; empty uses the platform default
	RuntimeLibrary     string `yaml:"runtimeLibrary"`
	ExecBinary         string `yaml:"execBinary"`
	ExecTimeoutSeconds int    `yaml:"execTimeoutSeconds"`
}

type ReportConfig struct {
	Dir      string `yaml:"dir"`
	Filename string `yaml:"filename"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type CacheConfig struct {
	// Empty disables Redis and uses the in-process cache
	RedisAddr  string `yaml:"redisAddr"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "https://api.twitter.com/2",
			TimeoutSeconds: 15,
			MaxAttempts:    3,
			BackoffMillis:  500,
			RPS:            1,
			Burst:          2,
		},
		Analysis: AnalysisConfig{
			DefaultPostCount: 10,
			MaxPostCount:     20,
			Features:         FeaturesCompat,
			WordLength:       WordLengthLast,
		},
		Model: ModelConfig{
			Backend:            ModelBackendONNX,
			Path:               "./models/bot_detection_model.onnx",
			ExecTimeoutSeconds: 30,
		},
		Report:  ReportConfig{Dir: ".", Filename: "Twitter_Bot_Report.pdf"},
		Storage: StorageConfig{DBPath: "./botcheck.db"},
		Cache:   CacheConfig{TTLSeconds: 900},
		Server:  ServerConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info"},
	}
}

// envOverlay lists the environment variables that override the file.
type envOverlay struct {
	BearerToken string `envconfig:"X_BEARER_TOKEN"`
	ModelPath   string `envconfig:"BOTCHECK_MODEL_PATH"`
	RedisAddr   string `envconfig:"BOTCHECK_REDIS_ADDR"`
	LogLevel    string `envconfig:"BOTCHECK_LOG_LEVEL"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
	ServerAddr  string `envconfig:"BOTCHECK_SERVER_ADDR"`
}

// ResolveEnv fills in config fields from environment variables. The bearer
// token is only taken from env when the file leaves it empty; the other
// variables override the file.
func (c *Config) ResolveEnv() error {
	var env envOverlay
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("config: read env: %w", err)
	}
	if c.Credentials.BearerToken == "" {
		c.Credentials.BearerToken = env.BearerToken
	}
	override(&c.Model.Path, env.ModelPath)
	override(&c.Cache.RedisAddr, env.RedisAddr)
	override(&c.Log.Level, env.LogLevel)
	override(&c.Metrics.Addr, env.MetricsAddr)
	override(&c.Server.Addr, env.ServerAddr)
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate rejects unknown modes and out-of-range bounds.
func (c Config) Validate() error {
	var errs []error
	a := c.Analysis
	if a.MaxPostCount < 1 {
		errs = append(errs, fmt.Errorf("analysis.maxPostCount must be >= 1, got %d", a.MaxPostCount))
	}
	if a.DefaultPostCount < 1 || a.DefaultPostCount > a.MaxPostCount {
		errs = append(errs, fmt.Errorf("analysis.defaultPostCount must be in [1, %d], got %d", a.MaxPostCount, a.DefaultPostCount))
	}
	switch a.Features {
	case FeaturesCompat, FeaturesExtended:
	default:
		errs = append(errs, fmt.Errorf("analysis.features: unknown mode %q", a.Features))
	}
	switch a.WordLength {
	case WordLengthLast, WordLengthRunning:
	default:
		errs = append(errs, fmt.Errorf("analysis.wordLength: unknown mode %q", a.WordLength))
	}
	switch c.Model.Backend {
	case ModelBackendONNX, ModelBackendExec:
	default:
		errs = append(errs, fmt.Errorf("model.backend: unknown backend %q", c.Model.Backend))
	}
	if c.API.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("api.maxAttempts must be >= 1, got %d", c.API.MaxAttempts))
	}
	if c.API.RPS < 0 || c.API.Burst < 0 {
		errs = append(errs, errors.New("api.rps and api.burst must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.ResolveEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
