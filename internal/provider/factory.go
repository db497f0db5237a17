package provider

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"deephelper/internal/config"
)

// LlamaBuilt reports whether in-process llama support was compiled in.
func LlamaBuilt() bool { return llamaBuilt }

// FromConfig builds the provider selected by cfg.Provider.
func FromConfig(cfg config.Config, log zerolog.Logger) (Provider, error) {
	reqTimeout := time.Duration(cfg.ChatTimeoutSeconds) * time.Second
	switch cfg.Provider {
	case config.ProviderServer:
		return NewServerProvider(ServerConfig{
			BaseURL:        cfg.ServerURL,
			APIKey:         cfg.APIKey,
			RequestTimeout: reqTimeout,
			Logger:         log,
		}), nil
	case config.ProviderSubprocess:
		return NewSubprocessProvider(SubprocessConfig{
			Bin:            cfg.LlamaBin,
			ModelsDir:      cfg.ModelsDir,
			CtxSize:        cfg.LlamaCtx,
			Threads:        cfg.LlamaThreads,
			RequestTimeout: reqTimeout,
			Logger:         log,
		}), nil
	case config.ProviderLlama:
		return NewLlamaProvider(LlamaConfig{
			ModelsDir: cfg.ModelsDir,
			CtxSize:   cfg.LlamaCtx,
			Threads:   cfg.LlamaThreads,
			Logger:    log,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
