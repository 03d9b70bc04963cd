package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const maxResponseSize = 10 * 1024 * 1024

// TEIOption configures a TEI backend.
type TEIOption func(*TEI)

// WithTEIClient sets a custom HTTP client.
func WithTEIClient(client *http.Client) TEIOption {
	return func(t *TEI) { t.client = client }
}

// WithTEIModel sets the model name reported before /info has been read.
func WithTEIModel(model string) TEIOption {
	return func(t *TEI) { t.model = model }
}

// TEI talks to a HuggingFace text-embeddings-inference server.
type TEI struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	model string
}

// NewTEI creates a backend for the server at baseURL.
func NewTEI(baseURL string, opts ...TEIOption) *TEI {
	t := &TEI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type teiInfo struct {
	ModelID        string `json:"model_id"`
	MaxInputLength int    `json:"max_input_length"`
}

type teiEmbedRequest struct {
	Inputs []string `json:"inputs"`
}

// Name implements Backend.
func (t *TEI) Name() string { return "tei" }

// Model implements Backend.
func (t *TEI) Model() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.model
}

// Load checks that the server is up and records the served model id.
func (t *TEI) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/info", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	body, err := t.do(req)
	if err != nil {
		return err
	}

	var info teiInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return fmt.Errorf("unmarshal info: %w", err)
	}
	if info.ModelID != "" {
		t.mu.Lock()
		t.model = info.ModelID
		t.mu.Unlock()
	}
	return nil
}

// Embed implements Backend.
func (t *TEI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(teiEmbedRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := t.do(req)
	if err != nil {
		return nil, err
	}

	var vectors [][]float32
	if err := json.Unmarshal(body, &vectors); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return vectors, nil
}

func (t *TEI) do(req *http.Request) ([]byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tei service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
