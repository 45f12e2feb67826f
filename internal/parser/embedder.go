package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPEmbedder calls a local embedding server (Ollama-compatible API).
type HTTPEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewHTTPEmbedder constructs a client targeting the configured server.
func NewHTTPEmbedder(baseURL, model string, timeout time.Duration) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Embed returns the vector for a text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.baseURL == "" {
		return nil, fmt.Errorf("embedding server not configured")
	}

	payload := map[string]any{
		"model":  e.model,
		"prompt": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned %s", resp.Status)
	}

	var response struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("embedding server returned empty vector")
	}
	return response.Embedding, nil
}
