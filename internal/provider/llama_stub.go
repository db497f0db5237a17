//go:build !llama

package provider

import (
	"context"

	"github.com/rs/zerolog"
)

// llamaBuilt is false in default CGO-free builds.
const llamaBuilt = false

// LlamaConfig configures the in-process go-llama.cpp backend.
type LlamaConfig struct {
	ModelsDir string
	CtxSize   int
	Threads   int
	Logger    zerolog.Logger
}

// LlamaProvider refuses to load without the 'llama' build tag.
type LlamaProvider struct {
	cfg LlamaConfig
}

// NewLlamaProvider returns the stub provider.
func NewLlamaProvider(cfg LlamaConfig) *LlamaProvider { return &LlamaProvider{cfg: cfg} }

func (p *LlamaProvider) Name() string { return "llama" }

func (p *LlamaProvider) Load(ctx context.Context, modelID string) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
