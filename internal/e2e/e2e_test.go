package e2e

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"deephelper/pkg/types"
)

func TestE2E_ChatLoadsOnceAndReplies(t *testing.T) {
	fl := &fakeLlama{reply: func(prompt string) string {
		if strings.HasSuffix(prompt, "User: 2+2=?\nAssistant:") {
			return " 2+2 equals 4."
		}
		return " I am not sure."
	}}
	llama := fl.start(t)
	srv, _ := newStack(t, llama.URL, stackOpts{})

	resp, body := httpGet(t, srv.URL+"/api/status")
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil || resp.StatusCode != 200 {
		t.Fatalf("status: %d %s", resp.StatusCode, body)
	}
	if st.ModelLoaded {
		t.Fatalf("model must not be loaded before the first chat")
	}
	if fl.modelsCalls.Load() != 0 {
		t.Fatalf("status must not contact the provider")
	}

	code, body := postChat(srv.URL, "2+2=?")
	if code != 200 {
		t.Fatalf("chat: %d %s", code, body)
	}
	var cr types.ChatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		t.Fatalf("chat json: %v", err)
	}
	if cr.Status != "success" || cr.Response != "2+2 equals 4." {
		t.Fatalf("chat=%+v", cr)
	}

	for i := 0; i < 3; i++ {
		if code, body := postChat(srv.URL, "hello"); code != 200 {
			t.Fatalf("chat #%d: %d %s", i, code, body)
		}
	}
	if got := fl.modelsCalls.Load(); got != 1 {
		t.Fatalf("provider load calls=%d, want 1", got)
	}

	_, body = httpGet(t, srv.URL+"/api/status")
	_ = json.Unmarshal(body, &st)
	if !st.ModelLoaded {
		t.Fatalf("model should be loaded after chat")
	}
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != 200 {
		t.Fatalf("readyz=%d", resp.StatusCode)
	}
}

func TestE2E_EmptyMessage(t *testing.T) {
	fl := &fakeLlama{reply: func(string) string { return " hi" }}
	srv, _ := newStack(t, fl.start(t).URL, stackOpts{})
	code, body := postChat(srv.URL, "")
	if code != 400 || !strings.Contains(string(body), "empty message") {
		t.Fatalf("got %d %s", code, body)
	}
	if fl.modelsCalls.Load() != 0 || fl.completions.Load() != 0 {
		t.Fatalf("empty message must not reach the provider")
	}
}

func TestE2E_ConcurrentFirstRequestsShareOneLoad(t *testing.T) {
	fl := &fakeLlama{reply: func(string) string { return " ok" }}
	srv, _ := newStack(t, fl.start(t).URL, stackOpts{})
	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], _ = postChat(srv.URL, "hello")
		}(i)
	}
	wg.Wait()
	for i, c := range codes {
		if c != 200 {
			t.Fatalf("request %d: status=%d", i, c)
		}
	}
	if got := fl.modelsCalls.Load(); got != 1 {
		t.Fatalf("provider load calls=%d, want 1", got)
	}
}

func TestE2E_LoadFailureThenRecovery(t *testing.T) {
	fl := &fakeLlama{reply: func(string) string { return " back" }}
	fl.down.Store(true)
	srv, _ := newStack(t, fl.start(t).URL, stackOpts{})

	code, body := postChat(srv.URL, "hello")
	if code != 503 || !strings.Contains(string(body), "model unavailable") {
		t.Fatalf("got %d %s", code, body)
	}
	fl.down.Store(false)
	code, body = postChat(srv.URL, "hello")
	if code != 200 || !strings.Contains(string(body), `"back"`) {
		t.Fatalf("after recovery got %d %s", code, body)
	}
}

// TestE2E_Backpressure429 verifies 429 when the queue is full and the wait
// timeout elapses.
func TestE2E_Backpressure429(t *testing.T) {
	fl := &fakeLlama{reply: func(string) string { return " slow" }, delay: 300 * time.Millisecond}
	srv, asst := newStack(t, fl.start(t).URL, stackOpts{maxQueue: 1, maxWait: 20 * time.Millisecond})
	if err := asst.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}

	first := make(chan int, 1)
	go func() {
		c, _ := postChat(srv.URL, "first")
		first <- c
	}()
	deadline := time.Now().Add(2 * time.Second)
	for fl.completions.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	code, body := postChat(srv.URL, "second")
	if code != 429 || !strings.Contains(string(body), "too busy") {
		t.Fatalf("expected 429, got %d %s", code, body)
	}
	if c := <-first; c != 200 {
		t.Fatalf("first request status=%d", c)
	}
}
