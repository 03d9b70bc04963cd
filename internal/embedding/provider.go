// Package embedding loads a sentence-embedding model in the background and
// turns strings into fixed-length vectors once it is ready.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"github.com/MikhailRaia/shortlink/internal/model"
)

var (
	// ErrModelNotReady is returned by Embed before loading has completed.
	ErrModelNotReady = errors.New("embedding model not ready")
	// ErrEmbeddingFailed wraps backend and validation failures.
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// Backend is a concrete embedding model.
type Backend interface {
	Name() string
	Model() string
	Load(ctx context.Context) error
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// State is the provider lifecycle stage.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Info describes the provider for status endpoints.
type Info struct {
	Backend    string `json:"backend"`
	Model      string `json:"model"`
	State      string `json:"state"`
	Dimensions int    `json:"dimensions"`
	Error      string `json:"error,omitempty"`
}

const (
	defaultMaxFailures uint32 = 5
	defaultOpenTimeout        = 30 * time.Second
	warmupText                = "warmup"
)

// BreakerConfig tunes the circuit breaker around Embed calls.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Provider owns a Backend and its lifecycle.
type Provider struct {
	backend Backend
	breaker *gobreaker.CircuitBreaker[[][]float32]

	mu      sync.RWMutex
	state   State
	dims    int
	loadErr error
	done    chan struct{}
}

// NewProvider wraps backend. Nothing is loaded until Load is called.
func NewProvider(backend Backend, cfg BreakerConfig) *Provider {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultOpenTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        "embedding:" + backend.Name(),
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Caller cancellations do not count against the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &Provider{
		backend: backend,
		breaker: breaker,
		state:   StateUnloaded,
		done:    make(chan struct{}),
	}
}

// Load loads the backend model and runs a warm-up embedding to learn its
// dimensionality. Calls made while loading or after success are no-ops; a
// failed load may be retried.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case StateLoading, StateReady:
		p.mu.Unlock()
		return nil
	case StateFailed:
		p.done = make(chan struct{})
	}
	p.state = StateLoading
	p.loadErr = nil
	done := p.done
	p.mu.Unlock()

	log.Info().
		Str("backend", p.backend.Name()).
		Str("model", p.backend.Model()).
		Msg("Loading the embedding model")

	start := time.Now()
	dims, err := p.load(ctx)

	p.mu.Lock()
	if err != nil {
		p.state = StateFailed
		p.loadErr = err
	} else {
		p.state = StateReady
		p.dims = dims
	}
	close(done)
	p.mu.Unlock()

	if err != nil {
		log.Error().
			Err(err).
			Str("backend", p.backend.Name()).
			Msg("Failed to load the embedding model")
		return err
	}

	log.Info().
		Str("backend", p.backend.Name()).
		Str("model", p.backend.Model()).
		Int("dimensions", dims).
		Dur("duration", time.Since(start)).
		Msg("The embedding model has been loaded")

	return nil
}

func (p *Provider) load(ctx context.Context) (int, error) {
	if err := p.backend.Load(ctx); err != nil {
		return 0, fmt.Errorf("load %s model: %w", p.backend.Name(), err)
	}

	vectors, err := p.backend.Embed(ctx, []string{warmupText})
	if err != nil {
		return 0, fmt.Errorf("warm up %s model: %w", p.backend.Name(), err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return 0, fmt.Errorf("warm up %s model: %w: empty warm-up embedding", p.backend.Name(), ErrEmbeddingFailed)
	}

	return len(vectors[0]), nil
}

// Embed returns one vector per input string.
func (p *Provider) Embed(ctx context.Context, texts []string) ([]model.EmbeddingVector, error) {
	p.mu.RLock()
	state, dims := p.state, p.dims
	p.mu.RUnlock()

	if state != StateReady {
		return nil, fmt.Errorf("%w: state %s", ErrModelNotReady, state)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	raw, err := p.breaker.Execute(func() ([][]float32, error) {
		return p.backend.Embed(ctx, texts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open: %v", ErrEmbeddingFailed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	if len(raw) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", ErrEmbeddingFailed, len(raw), len(texts))
	}

	vectors := make([]model.EmbeddingVector, len(raw))
	for i, v := range raw {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrEmbeddingFailed, i, len(v), dims)
		}
		vec := make(model.EmbeddingVector, len(v))
		for j, x := range v {
			vec[j] = float64(x)
		}
		vectors[i] = vec
	}

	return vectors, nil
}

// State returns the current lifecycle stage.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// WaitReady blocks until the model is ready, loading fails or ctx ends.
func (p *Provider) WaitReady(ctx context.Context) error {
	for {
		p.mu.RLock()
		state, done, loadErr := p.state, p.done, p.loadErr
		p.mu.RUnlock()

		switch state {
		case StateReady:
			return nil
		case StateFailed:
			return fmt.Errorf("%w: %v", ErrModelNotReady, loadErr)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrModelNotReady, ctx.Err())
		case <-done:
		}
	}
}

// Info reports the backend, model and lifecycle state.
func (p *Provider) Info() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()

	info := Info{
		Backend:    p.backend.Name(),
		Model:      p.backend.Model(),
		State:      p.state.String(),
		Dimensions: p.dims,
	}
	if p.loadErr != nil {
		info.Error = p.loadErr.Error()
	}
	return info
}
