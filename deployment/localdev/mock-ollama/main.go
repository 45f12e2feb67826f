// mock-ollama is a stand-in for a local Ollama instance so the rewrite
// integration can be exercised without pulling a model. It serves the
// two endpoints the engine talks to and echoes a canned phrasing of the
// prompt it was given.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, map[string]any{
			"models": []map[string]any{
				{"name": "llama3.2:3b"},
				{"name": "mistral:7b"},
			},
		})
	})

	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{
			"model":    req.Model,
			"response": cannedResponse(req.Prompt),
			"done":     true,
		})
	})

	logger := log.New(log.Writer(), "ollama-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":11434",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :11434")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

// cannedResponse fabricates a short conversational reply that still
// references the question, so cache keys and prompt plumbing can be
// checked end to end.
func cannedResponse(prompt string) string {
	question := "your question"
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "CURRENT USER QUESTION:") {
			question = strings.TrimSpace(strings.TrimPrefix(line, "CURRENT USER QUESTION:"))
			break
		}
	}
	return fmt.Sprintf("(mock) Here is a friendly summary for %s. "+
		"The underlying numbers are in the structured payload above.", question)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
