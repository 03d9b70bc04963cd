package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported embedding backends.
const (
	BackendTEI    = "tei"
	BackendOpenAI = "openai"
)

// Config holds the runtime settings of the service.
type Config struct {
	ServerAddress string
	GRPCAddress   string

	BitlyToken         string
	BitlyEndpoint      string
	BitlyDefaultDomain string
	BitlyTimeout       time.Duration

	EmbeddingBackend string
	EmbeddingURL     string
	EmbeddingModel   string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	ModelWait        time.Duration

	SessionSecret  string
	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel        string
	TracingEnabled  bool
	TracingExporter string

	ConfigFile string
}

// fileConfig mirrors Config in the config file. Durations are strings
// such as "5s".
type fileConfig struct {
	ServerAddress      string  `json:"server_address" yaml:"server_address"`
	GRPCAddress        string  `json:"grpc_address" yaml:"grpc_address"`
	BitlyToken         string  `json:"bitly_token" yaml:"bitly_token"`
	BitlyEndpoint      string  `json:"bitly_endpoint" yaml:"bitly_endpoint"`
	BitlyDefaultDomain string  `json:"bitly_default_domain" yaml:"bitly_default_domain"`
	BitlyTimeout       string  `json:"bitly_timeout" yaml:"bitly_timeout"`
	EmbeddingBackend   string  `json:"embedding_backend" yaml:"embedding_backend"`
	EmbeddingURL       string  `json:"embedding_url" yaml:"embedding_url"`
	EmbeddingModel     string  `json:"embedding_model" yaml:"embedding_model"`
	OpenAIAPIKey       string  `json:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL      string  `json:"openai_base_url" yaml:"openai_base_url"`
	ModelWait          string  `json:"model_wait" yaml:"model_wait"`
	SessionSecret      string  `json:"session_secret" yaml:"session_secret"`
	RateLimitRPS       float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst     int     `json:"rate_limit_burst" yaml:"rate_limit_burst"`
	LogLevel           string  `json:"log_level" yaml:"log_level"`
	TracingEnabled     *bool   `json:"tracing_enabled" yaml:"tracing_enabled"`
	TracingExporter    string  `json:"tracing_exporter" yaml:"tracing_exporter"`
}

func defaults() *Config {
	return &Config{
		ServerAddress:    ":8080",
		GRPCAddress:      ":3200",
		BitlyEndpoint:    "https://api-ssl.bitly.com/v4/shorten",
		BitlyTimeout:     10 * time.Second,
		EmbeddingBackend: BackendTEI,
		EmbeddingURL:     "http://localhost:8081",
		ModelWait:        0,
		RateLimitRPS:     5,
		RateLimitBurst:   10,
		LogLevel:         "info",
		TracingExporter:  "noop",
	}
}

// NewConfig builds the configuration. Later sources override earlier ones:
// defaults, config file (-c or CONFIG), command-line flags, environment.
// A .env file in the working directory is loaded into the environment first.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	cfg.ConfigFile = configPath(os.Args[1:])
	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.StringVar(&cfg.ConfigFile, "c", cfg.ConfigFile, "Path to a YAML or JSON config file")
	flag.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "HTTP server address (e.g. localhost:8888)")
	flag.StringVar(&cfg.GRPCAddress, "g", cfg.GRPCAddress, "gRPC server address (e.g. localhost:3200)")
	flag.StringVar(&cfg.BitlyEndpoint, "bitly-endpoint", cfg.BitlyEndpoint, "Bitly shorten endpoint")
	flag.StringVar(&cfg.BitlyDefaultDomain, "bitly-domain", cfg.BitlyDefaultDomain, "Default short link domain")
	flag.DurationVar(&cfg.BitlyTimeout, "bitly-timeout", cfg.BitlyTimeout, "Timeout of a Bitly request")
	flag.StringVar(&cfg.EmbeddingBackend, "embedding-backend", cfg.EmbeddingBackend, "Embedding backend (tei or openai)")
	flag.StringVar(&cfg.EmbeddingURL, "embedding-url", cfg.EmbeddingURL, "Embedding server base URL")
	flag.StringVar(&cfg.EmbeddingModel, "embedding-model", cfg.EmbeddingModel, "Embedding model name")
	flag.DurationVar(&cfg.ModelWait, "model-wait", cfg.ModelWait, "How long a submission waits for the embedding model")
	flag.Float64Var(&cfg.RateLimitRPS, "rps", cfg.RateLimitRPS, "Shorten requests per second allowed per client (0 disables)")
	flag.IntVar(&cfg.RateLimitBurst, "burst", cfg.RateLimitBurst, "Shorten request burst per client")
	flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "Log level")
	flag.BoolVar(&cfg.TracingEnabled, "tracing", cfg.TracingEnabled, "Enable tracing")
	flag.StringVar(&cfg.TracingExporter, "tracing-exporter", cfg.TracingExporter, "Tracing exporter (noop or stdout)")

	flag.Parse()

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.BitlyToken == "" {
		errs = append(errs, errors.New("BITLY_TOKEN is required"))
	}

	switch c.EmbeddingBackend {
	case BackendTEI:
		if c.EmbeddingURL == "" {
			errs = append(errs, errors.New("EMBEDDING_URL is required for the tei backend"))
		}
	case BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding backend %q", c.EmbeddingBackend))
	}

	if c.RateLimitRPS < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("rate limit burst must be at least 1"))
	}

	return errors.Join(errs...)
}

func configPath(args []string) string {
	path := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-c" || arg == "--c":
			if i+1 < len(args) {
				path = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "-c="):
			path = strings.TrimPrefix(arg, "-c=")
		case strings.HasPrefix(arg, "--c="):
			path = strings.TrimPrefix(arg, "--c=")
		}
	}

	if envPath := os.Getenv("CONFIG"); envPath != "" {
		path = envPath
	}

	return path
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &fc)
	} else {
		err = yaml.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.ServerAddress, fc.ServerAddress)
	setString(&c.GRPCAddress, fc.GRPCAddress)
	setString(&c.BitlyToken, fc.BitlyToken)
	setString(&c.BitlyEndpoint, fc.BitlyEndpoint)
	setString(&c.BitlyDefaultDomain, fc.BitlyDefaultDomain)
	setString(&c.EmbeddingBackend, fc.EmbeddingBackend)
	setString(&c.EmbeddingURL, fc.EmbeddingURL)
	setString(&c.EmbeddingModel, fc.EmbeddingModel)
	setString(&c.OpenAIAPIKey, fc.OpenAIAPIKey)
	setString(&c.OpenAIBaseURL, fc.OpenAIBaseURL)
	setString(&c.SessionSecret, fc.SessionSecret)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.TracingExporter, fc.TracingExporter)

	if err := setDuration(&c.BitlyTimeout, "bitly_timeout", fc.BitlyTimeout); err != nil {
		return err
	}
	if err := setDuration(&c.ModelWait, "model_wait", fc.ModelWait); err != nil {
		return err
	}
	if fc.RateLimitRPS != 0 {
		c.RateLimitRPS = fc.RateLimitRPS
	}
	if fc.RateLimitBurst != 0 {
		c.RateLimitBurst = fc.RateLimitBurst
	}
	if fc.TracingEnabled != nil {
		c.TracingEnabled = *fc.TracingEnabled
	}

	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.ServerAddress, os.Getenv("SERVER_ADDRESS"))
	setString(&c.GRPCAddress, os.Getenv("GRPC_ADDRESS"))
	setString(&c.BitlyToken, os.Getenv("BITLY_TOKEN"))
	setString(&c.BitlyEndpoint, os.Getenv("BITLY_ENDPOINT"))
	setString(&c.BitlyDefaultDomain, os.Getenv("BITLY_DEFAULT_DOMAIN"))
	setString(&c.EmbeddingBackend, os.Getenv("EMBEDDING_BACKEND"))
	setString(&c.EmbeddingURL, os.Getenv("EMBEDDING_URL"))
	setString(&c.EmbeddingModel, os.Getenv("EMBEDDING_MODEL"))
	setString(&c.OpenAIAPIKey, os.Getenv("OPENAI_API_KEY"))
	setString(&c.OpenAIBaseURL, os.Getenv("OPENAI_BASE_URL"))
	setString(&c.SessionSecret, os.Getenv("SESSION_SECRET"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&c.TracingExporter, os.Getenv("TRACING_EXPORTER"))

	if err := setDuration(&c.BitlyTimeout, "BITLY_TIMEOUT", os.Getenv("BITLY_TIMEOUT")); err != nil {
		return err
	}
	if err := setDuration(&c.ModelWait, "MODEL_WAIT", os.Getenv("MODEL_WAIT")); err != nil {
		return err
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		c.RateLimitRPS = rps
	}

	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST %q: %w", v, err)
		}
		c.RateLimitBurst = burst
	}

	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TRACING_ENABLED %q: %w", v, err)
		}
		c.TracingEnabled = enabled
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}
