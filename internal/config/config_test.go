package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG", "SERVER_ADDRESS", "GRPC_ADDRESS",
	"BITLY_TOKEN", "BITLY_ENDPOINT", "BITLY_DEFAULT_DOMAIN", "BITLY_TIMEOUT",
	"EMBEDDING_BACKEND", "EMBEDDING_URL", "EMBEDDING_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL", "MODEL_WAIT",
	"SESSION_SECRET", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"LOG_LEVEL", "TRACING_ENABLED", "TRACING_EXPORTER",
}

func resetEnv(t *testing.T, args ...string) {
	t.Helper()

	for _, key := range envKeys {
		t.Setenv(key, "")
	}

	oldArgs := os.Args
	oldFlags := flag.CommandLine
	t.Cleanup(func() {
		os.Args = oldArgs
		flag.CommandLine = oldFlags
	})

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	os.Args = append([]string{"cmd"}, args...)
}

func TestNewConfigDefault(t *testing.T) {
	resetEnv(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, ":3200", cfg.GRPCAddress)
	assert.Equal(t, "https://api-ssl.bitly.com/v4/shorten", cfg.BitlyEndpoint)
	assert.Equal(t, 10*time.Second, cfg.BitlyTimeout)
	assert.Equal(t, BackendTEI, cfg.EmbeddingBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, "noop", cfg.TracingExporter)
}

func TestNewConfigWithArgs(t *testing.T) {
	resetEnv(t, "-a", "localhost:8888", "-g", "localhost:3300", "-bitly-timeout", "3s", "-rps", "2.5", "-tracing")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8888", cfg.ServerAddress)
	assert.Equal(t, "localhost:3300", cfg.GRPCAddress)
	assert.Equal(t, 3*time.Second, cfg.BitlyTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.True(t, cfg.TracingEnabled)
}

func TestNewConfigWithEnv(t *testing.T) {
	resetEnv(t, "-a", "flag:8080")
	t.Setenv("SERVER_ADDRESS", "env:8080")
	t.Setenv("BITLY_TOKEN", "token")
	t.Setenv("EMBEDDING_BACKEND", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("MODEL_WAIT", "250ms")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "env:8080", cfg.ServerAddress)
	assert.Equal(t, "token", cfg.BitlyToken)
	assert.Equal(t, BackendOpenAI, cfg.EmbeddingBackend)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.ModelWait)
}

func TestNewConfigInvalidEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"BITLY_TIMEOUT", "soon"},
		{"RATE_LIMIT_RPS", "fast"},
		{"RATE_LIMIT_BURST", "1.5"},
		{"TRACING_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaults()
		cfg.BitlyToken = "token"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid tei", mutate: func(c *Config) {}},
		{name: "valid openai", mutate: func(c *Config) {
			c.EmbeddingBackend = BackendOpenAI
			c.OpenAIAPIKey = "sk-test"
		}},
		{name: "rate limit disabled", mutate: func(c *Config) {
			c.RateLimitRPS = 0
			c.RateLimitBurst = 0
		}},
		{name: "missing token", mutate: func(c *Config) { c.BitlyToken = "" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.EmbeddingBackend = "word2vec" }, wantErr: true},
		{name: "openai without key", mutate: func(c *Config) { c.EmbeddingBackend = BackendOpenAI }, wantErr: true},
		{name: "tei without url", mutate: func(c *Config) { c.EmbeddingURL = "" }, wantErr: true},
		{name: "negative rps", mutate: func(c *Config) { c.RateLimitRPS = -1 }, wantErr: true},
		{name: "zero burst", mutate: func(c *Config) { c.RateLimitBurst = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG", "")

	assert.Equal(t, "", configPath(nil))
	assert.Equal(t, "a.yaml", configPath([]string{"-c", "a.yaml"}))
	assert.Equal(t, "b.json", configPath([]string{"-a", ":1", "-c=b.json"}))
	assert.Equal(t, "c.yml", configPath([]string{"--c", "c.yml"}))
	assert.Equal(t, "", configPath([]string{"-c"}))

	t.Setenv("CONFIG", "env.yaml")
	assert.Equal(t, "env.yaml", configPath([]string{"-c", "a.yaml"}))
}
