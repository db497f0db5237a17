package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"deephelper/internal/assistant"
	"deephelper/internal/httpapi"
	"deephelper/internal/provider"
)

// fakeLlama is an in-test llama.cpp server speaking the endpoints the server
// provider uses. reply returns the completion text for a prompt.
type fakeLlama struct {
	modelsCalls atomic.Int32
	completions atomic.Int32
	reply       func(prompt string) string
	delay       time.Duration
	down        atomic.Bool

	mu      sync.Mutex
	prompts []string
}

func (f *fakeLlama) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		f.modelsCalls.Add(1)
		if f.down.Load() {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"object":"list","data":[{"id":"DialoGPT-medium.Q8_0.gguf"}]}`)
	})
	mux.HandleFunc("/tokenize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		toks := make([]int, len(strings.Fields(req.Content)))
		_ = json.NewEncoder(w).Encode(map[string]any{"tokens": toks})
	})
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		f.completions.Add(1)
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		f.mu.Unlock()
		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, word := range strings.SplitAfter(f.reply(req.Prompt), " ") {
			b, _ := json.Marshal(map[string]any{"choices": []map[string]any{{"text": word}}})
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type stackOpts struct {
	maxQueue int
	maxWait  time.Duration
}

// newStack wires a server provider, an Assistant and the HTTP mux together
// and returns the DeepHelper test server.
func newStack(t *testing.T, llamaURL string, o stackOpts) (*httptest.Server, *assistant.Assistant) {
	t.Helper()
	prov := provider.NewServerProvider(provider.ServerConfig{BaseURL: llamaURL, Logger: zerolog.Nop()})
	asst := assistant.New(assistant.Config{
		Provider:      prov,
		ModelID:       "microsoft/DialoGPT-medium",
		MaxQueueDepth: o.maxQueue,
		MaxWait:       o.maxWait,
		Logger:        zerolog.Nop(),
	})
	t.Cleanup(func() { _ = asst.Close() })
	srv := httptest.NewServer(httpapi.NewMux(asst))
	t.Cleanup(srv.Close)
	return srv, asst
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// postChat is safe to call from other goroutines: it reports failures as a
// zero status instead of calling t.Fatal.
func postChat(url, message string) (int, []byte) {
	payload, _ := json.Marshal(map[string]string{"message": message})
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return 0, nil
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, []byte(err.Error())
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, body
}
