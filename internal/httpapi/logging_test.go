package httpapi

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelInfo,
		"off":   LevelOff,
		"none":  LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"DEBUG": LevelDebug,
		"1":     LevelDebug,
		"weird": LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	SetDefaultRequestLogLevel("off")
	defer SetDefaultRequestLogLevel("info")
	if got := requestLogLevel(httptest.NewRequest("GET", "/x", nil)); got != LevelOff {
		t.Fatalf("default not applied: %v", got)
	}
}

func TestChatLogging_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	r := NewMux(&mockService{reply: "four"})
	req := httptest.NewRequest("POST", "/api/chat?log=debug", strings.NewReader(`{"message":"2+2=?"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)
	out := buf.String()
	for _, want := range []string{`"chat start"`, `"message":"2+2=?"`, `"chat end"`, `"request_id"`, `"status":200`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %s: %s", want, out)
		}
	}

	buf.Reset()
	req = httptest.NewRequest("POST", "/api/chat?log=off", strings.NewReader(`{"message":"2+2=?"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if buf.Len() != 0 {
		t.Fatalf("expected no log lines at level off, got %s", buf.String())
	}
}

func TestLogChatEnd_ErrorsLoggedAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())
	r := httptest.NewRequest("POST", "/api/chat", nil)
	logChatEnd(r, LevelError, 500, time.Now(), errors.New("boom"))
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("unexpected log: %s", buf.String())
	}
	buf.Reset()
	logChatEnd(r, LevelError, 200, time.Now(), nil)
	if buf.Len() != 0 {
		t.Fatalf("success must not log at error level: %s", buf.String())
	}
}

func TestChatLogging_FailuresIgnoreOffLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	mux := NewMux(&mockService{err: errors.New("backend exploded")})
	req := httptest.NewRequest("POST", "/api/chat?log=off", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Log-Level", "off")
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if out := buf.String(); !strings.Contains(out, `"chat end"`) || !strings.Contains(out, "backend exploded") {
		t.Fatalf("failed chat must be logged even with log=off: %s", out)
	}

	buf.Reset()
	ok := httptest.NewRequest("POST", "/api/chat?log=off", strings.NewReader(`{"message":"hi"}`))
	ok.Header.Set("Content-Type", "application/json")
	NewMux(&mockService{reply: "fine"}).ServeHTTP(httptest.NewRecorder(), ok)
	if strings.Contains(buf.String(), `"chat end"`) {
		t.Fatalf("successful chat with log=off must stay quiet: %s", buf.String())
	}
}
