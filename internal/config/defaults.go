package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Provider names accepted in Config.Provider.
const (
	ProviderServer     = "server"
	ProviderSubprocess = "subprocess"
	ProviderLlama      = "llama"
)

// DefaultModelID is the pretrained model the assistant loads when none is configured.
const DefaultModelID = "microsoft/DialoGPT-medium"

// Default returns the built-in configuration.
func Default() Config {
	t := true
	f := false
	return Config{
		Addr:           "0.0.0.0:5000",
		Provider:       ProviderServer,
		ModelID:        DefaultModelID,
		ModelsDir:      "~/models/llm",
		ServerURL:      "http://127.0.0.1:8081",
		LlamaCtx:       2048,
		LlamaThreads:   4,
		MaxBodyBytes:   1 << 20,
		MaxConcurrent:  1,
		MaxQueueDepth:  32,
		MaxWaitSeconds: 30,
		Warmup:         &f,
		LogLevel:       "info",
		LogFormat:      "auto",
		CORSEnabled:    &t,
		CORSOrigins:    []string{"*"},
	}
}

// Merge overlays the non-zero fields of over onto base.
func Merge(base, over Config) Config {
	out := base
	setS := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setI := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setI64 := func(dst *int64, v int64) {
		if v != 0 {
			*dst = v
		}
	}
	setS(&out.Addr, over.Addr)
	setS(&out.Provider, over.Provider)
	setS(&out.ModelID, over.ModelID)
	setS(&out.ModelsDir, over.ModelsDir)
	setS(&out.ServerURL, over.ServerURL)
	setS(&out.APIKey, over.APIKey)
	setS(&out.LlamaBin, over.LlamaBin)
	setI(&out.LlamaCtx, over.LlamaCtx)
	setI(&out.LlamaThreads, over.LlamaThreads)
	setS(&out.Persona, over.Persona)
	setS(&out.UserMarker, over.UserMarker)
	setS(&out.AssistantMarker, over.AssistantMarker)
	setI64(&out.MaxBodyBytes, over.MaxBodyBytes)
	setI64(&out.ChatTimeoutSeconds, over.ChatTimeoutSeconds)
	setI(&out.MaxConcurrent, over.MaxConcurrent)
	setI(&out.MaxQueueDepth, over.MaxQueueDepth)
	setI64(&out.MaxWaitSeconds, over.MaxWaitSeconds)
	setS(&out.LogLevel, over.LogLevel)
	setS(&out.LogFormat, over.LogFormat)
	if over.Warmup != nil {
		v := *over.Warmup
		out.Warmup = &v
	}
	if over.CORSEnabled != nil {
		v := *over.CORSEnabled
		out.CORSEnabled = &v
	}
	if len(over.CORSOrigins) > 0 {
		out.CORSOrigins = append([]string(nil), over.CORSOrigins...)
	}
	return out
}

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "DEEPHELPER_"

// FromEnv builds a partial Config from DEEPHELPER_* variables using lookup
// (normally os.LookupEnv).
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var cfg Config
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	var firstErr error
	num := func(key string, dst *int64) {
		v, ok := get(key)
		if !ok {
			return
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			return
		}
		*dst = n
	}
	boolean := func(key string) *bool {
		v, ok := get(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			return nil
		}
		return &b
	}

	str("ADDR", &cfg.Addr)
	str("PROVIDER", &cfg.Provider)
	str("MODEL_ID", &cfg.ModelID)
	str("MODELS_DIR", &cfg.ModelsDir)
	str("SERVER_URL", &cfg.ServerURL)
	str("API_KEY", &cfg.APIKey)
	str("LLAMA_BIN", &cfg.LlamaBin)
	str("PERSONA", &cfg.Persona)
	str("USER_MARKER", &cfg.UserMarker)
	str("ASSISTANT_MARKER", &cfg.AssistantMarker)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	var llamaCtx, llamaThreads, maxConc, maxQueue int64
	num("LLAMA_CTX", &llamaCtx)
	num("LLAMA_THREADS", &llamaThreads)
	num("MAX_CONCURRENT", &maxConc)
	num("MAX_QUEUE_DEPTH", &maxQueue)
	cfg.LlamaCtx = int(llamaCtx)
	cfg.LlamaThreads = int(llamaThreads)
	cfg.MaxConcurrent = int(maxConc)
	cfg.MaxQueueDepth = int(maxQueue)
	num("MAX_BODY_BYTES", &cfg.MaxBodyBytes)
	num("CHAT_TIMEOUT_SECONDS", &cfg.ChatTimeoutSeconds)
	num("MAX_WAIT_SECONDS", &cfg.MaxWaitSeconds)

	cfg.Warmup = boolean("WARMUP")
	cfg.CORSEnabled = boolean("CORS_ENABLED")
	if v, ok := get("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = SplitCSV(v)
	}
	return cfg, firstErr
}

// Validate reports configuration values that cannot be served.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderServer:
		if c.ServerURL == "" {
			return fmt.Errorf("provider %q requires server_url", c.Provider)
		}
	case ProviderSubprocess, ProviderLlama:
		if c.ModelsDir == "" {
			return fmt.Errorf("provider %q requires models_dir", c.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q (want %s|%s|%s)", c.Provider, ProviderServer, ProviderSubprocess, ProviderLlama)
	}
	if strings.TrimSpace(c.ModelID) == "" {
		return fmt.Errorf("model_id is required")
	}
	if c.MaxConcurrent < 0 || c.MaxQueueDepth < 0 {
		return fmt.Errorf("max_concurrent and max_queue_depth must not be negative")
	}
	return nil
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empty items.
func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
