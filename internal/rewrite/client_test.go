package rewrite

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/airsight/airsight-engine/internal/cache"
	"github.com/airsight/airsight-engine/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tagsHandler(names ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type model struct {
			Name string `json:"name"`
		}
		out := struct {
			Models []model `json:"models"`
		}{}
		for _, name := range names {
			out.Models = append(out.Models, model{Name: name})
		}
		json.NewEncoder(w).Encode(out)
	}
}

func TestDetectModelPrefersConfiguredFamily(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("mistral:7b", "llama3.2:3b"))
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, nil, 0.4, 5*time.Second, nil, time.Minute, discardLogger())
	if !client.Available() {
		t.Fatalf("expected a detected model")
	}
	if client.model != "llama3.2:3b" {
		t.Fatalf("expected llama3.2:3b, got %q", client.model)
	}
}

func TestDetectModelFallsBackToFirstListed(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("custom-model:latest"))
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, []string{"llama3.2"}, 0.4, 5*time.Second, nil, time.Minute, discardLogger())
	if client.model != "custom-model:latest" {
		t.Fatalf("expected first listed model, got %q", client.model)
	}
}

func TestClientUnavailableReturnsFallback(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil, 0.4, time.Second, nil, time.Minute, discardLogger())
	if client.Available() {
		t.Fatalf("expected no model without a server")
	}

	got := client.Rewrite(context.Background(), models.IntentForecast, nil, "question", "fallback text", nil)
	if got != "fallback text" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestRewriteSuccessAndCache(t *testing.T) {
	generateCalls := 0
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("llama3.2:3b"))
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		generateCalls++
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad generate request: %v", err)
		}
		if req.Model != "llama3.2:3b" {
			t.Errorf("unexpected model %q", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "  polished answer  "})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := cache.NewMemoryProvider()
	client := NewClient(server.URL, nil, 0.4, 5*time.Second, provider, time.Minute, discardLogger())

	got := client.Rewrite(context.Background(), models.IntentForecast, map[string]any{"pm25": 27.5}, "question", "fallback", nil)
	if got != "polished answer" {
		t.Fatalf("expected trimmed generation, got %q", got)
	}

	got = client.Rewrite(context.Background(), models.IntentForecast, map[string]any{"pm25": 27.5}, "question", "fallback", nil)
	if got != "polished answer" {
		t.Fatalf("expected cached answer, got %q", got)
	}
	if generateCalls != 1 {
		t.Fatalf("expected a single generation call, got %d", generateCalls)
	}
}

func TestRewriteServerErrorReturnsFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("llama3.2:3b"))
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, nil, 0.4, 5*time.Second, nil, time.Minute, discardLogger())
	got := client.Rewrite(context.Background(), models.IntentTrend, nil, "question", "fallback", nil)
	if got != "fallback" {
		t.Fatalf("expected fallback on server error, got %q", got)
	}
}

func TestRewriteEmptyResponseReturnsFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("llama3.2:3b"))
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": "   "})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, nil, 0.4, 5*time.Second, nil, time.Minute, discardLogger())
	got := client.Rewrite(context.Background(), models.IntentCompare, nil, "question", "fallback", nil)
	if got != "fallback" {
		t.Fatalf("expected fallback on blank generation, got %q", got)
	}
}

func TestNoopRewriter(t *testing.T) {
	got := NoopRewriter{}.Rewrite(context.Background(), models.IntentForecast, nil, "question", "fallback", nil)
	if got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestBuildPromptIncludesHistoryAndGuidance(t *testing.T) {
	history := []models.Turn{
		{Role: "user", Content: "air quality in Myanmar?"},
		{Role: "ai", Content: "PM2.5 is 27"},
	}
	prompt := buildPrompt(models.IntentCompare, map[string]int{"a": 1}, "compare them", history)

	for _, want := range []string{
		"CONVERSATION HISTORY:",
		"USER: air quality in Myanmar?",
		"AI: PM2.5 is 27",
		`CURRENT USER QUESTION: "compare them"`,
		"DATA TO USE (JSON):",
		"GUIDANCE:",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
