// Package rewrite polishes deterministic fallback answers into
// conversational Markdown via a local Ollama-compatible server. Every
// failure path returns the fallback text unchanged.
package rewrite

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/airsight/airsight-engine/internal/cache"
	"github.com/airsight/airsight-engine/internal/models"
)

// defaultPreferences orders model families by speed for chat use.
var defaultPreferences = []string{"llama3.2", "llama3.1", "llama3", "mistral", "gemma2"}

// Rewriter turns a structured payload plus fallback text into the final
// answer.
type Rewriter interface {
	Rewrite(ctx context.Context, intent models.Intent, data any, userMessage, fallback string, history []models.Turn) string
}

// NoopRewriter always returns the fallback text.
type NoopRewriter struct{}

// Rewrite returns the fallback unchanged.
func (NoopRewriter) Rewrite(_ context.Context, _ models.Intent, _ any, _, fallback string, _ []models.Turn) string {
	return fallback
}

// Client talks to a local generation server.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	cache       cache.Provider
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// NewClient probes the server for available models and picks the
// preferred one. A client with no detected model passes every fallback
// through untouched.
func NewClient(baseURL string, preferred []string, temperature float64, timeout time.Duration, provider cache.Provider, ttl time.Duration, logger *slog.Logger) *Client {
	if len(preferred) == 0 {
		preferred = defaultPreferences
	}
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       provider,
		cacheTTL:    ttl,
		logger:      logger,
	}
	c.model = c.detectModel(preferred)
	if logger != nil {
		if c.model != "" {
			logger.Info("rewrite model detected", "model", c.model)
		} else {
			logger.Warn("no rewrite model available; answers use fallback text")
		}
	}
	return c
}

// detectModel lists server models and returns the first preference hit,
// falling back to the first listed model.
func (c *Client) detectModel(preferred []string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return ""
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil || len(tags.Models) == 0 {
		return ""
	}

	for _, pref := range preferred {
		for _, m := range tags.Models {
			if strings.Contains(strings.ToLower(m.Name), pref) {
				return m.Name
			}
		}
	}
	return tags.Models[0].Name
}

// Available reports whether a generation model was detected.
func (c *Client) Available() bool {
	return c.model != ""
}

// Rewrite renders the payload conversationally. On any failure the
// deterministic fallback is returned.
func (c *Client) Rewrite(ctx context.Context, intent models.Intent, data any, userMessage, fallback string, history []models.Turn) string {
	if !c.Available() {
		return fallback
	}

	prompt := buildPrompt(intent, data, userMessage, history)
	key := cacheKey(intent, prompt)

	if cached, err := c.cache.Get(ctx, key); err == nil {
		return string(cached)
	}

	payload := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": c.temperature,
			"top_p":       0.9,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fallback
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("rewrite generation failed", "error", err)
		}
		return fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var generated struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return fallback
	}
	answer := strings.TrimSpace(generated.Response)
	if answer == "" {
		return fallback
	}

	if err := c.cache.Set(ctx, key, []byte(answer), c.cacheTTL); err != nil && c.logger != nil {
		c.logger.Warn("caching rewritten answer failed", "error", err)
	}
	return answer
}

func cacheKey(intent models.Intent, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("rewrite:%s:%s", intent, hex.EncodeToString(sum[:16]))
}

const systemInstructions = `You are a strict data reporting API. You do not speak conversationally. You only output raw Markdown facts.

CRITICAL RULES:
1. NEVER use the words 'I', 'me', 'my', 'you', 'here is', 'I am sorry', 'as an AI'.
2. DO NOT write introductory or concluding paragraphs. If the first word of your response is not a fact or a bullet point, you have failed.
3. BE EXTREMELY CONCISE. Present everything as short bullet points.
4. Separate every single bullet point with double newlines.
5. NO Markdown tables.
6. ONLY use the numbers provided in the JSON data. Do not hallucinate.`

func buildPrompt(intent models.Intent, data any, userMessage string, history []models.Turn) string {
	var b strings.Builder
	b.WriteString(systemInstructions)
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("CONVERSATION HISTORY:\n")
		start := len(history) - 5
		if start < 0 {
			start = 0
		}
		for _, turn := range history[start:] {
			role := "USER"
			if turn.Role == "ai" {
				role = "AI"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "CURRENT USER QUESTION: %q\n\n", userMessage)

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		encoded = []byte("{}")
	}
	fmt.Fprintf(&b, "DATA TO USE (JSON):\n%s\n\n", encoded)

	if guidance := intentGuidance(intent); guidance != "" {
		b.WriteString("GUIDANCE: " + guidance)
	}
	b.WriteString("\n\nYOUR RESPONSE:\n")
	return b.String()
}

func intentGuidance(intent models.Intent) string {
	switch intent {
	case models.IntentBestMonth:
		return "List the best and worst months using bullet points. Explain why in one short sentence."
	case models.IntentWorstMonth:
		return "List the most polluted months using bullet points. Give one short safety tip."
	case models.IntentTrend:
		return "State if pollution is better or worse. Use bullet points to show the trend data."
	case models.IntentCompare:
		return "Compare the countries using bullet points. State clearly which is worse."
	case models.IntentForecast, models.IntentForecastMonthly:
		return "State the PM2.5 level and AQI category immediately using bullet points. Do not write filler text."
	case models.IntentHealthDeaths:
		return "List total deaths and the top 3 diseases using bullet points. Do not write a concluding summary paragraph."
	default:
		return ""
	}
}
