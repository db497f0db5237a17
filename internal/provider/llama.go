//go:build llama

package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"

	"deephelper/internal/registry"
)

// llamaBuilt indicates this binary was compiled with in-process llama support.
const llamaBuilt = true

// LlamaConfig configures the in-process go-llama.cpp backend.
type LlamaConfig struct {
	ModelsDir string
	CtxSize   int
	Threads   int
	Logger    zerolog.Logger
}

// LlamaProvider loads *.gguf files into the current process.
type LlamaProvider struct {
	cfg LlamaConfig
}

// NewLlamaProvider returns the in-process provider.
func NewLlamaProvider(cfg LlamaConfig) *LlamaProvider {
	if cfg.CtxSize <= 0 {
		cfg.CtxSize = 2048
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 4
	}
	return &LlamaProvider{cfg: cfg}
}

func (p *LlamaProvider) Name() string { return "llama" }

func (p *LlamaProvider) Load(ctx context.Context, modelID string) (Model, error) {
	models, err := registry.LoadDir(p.cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("scan models dir: %w", err)
	}
	mdl, ok := registry.Resolve(models, modelID)
	if !ok {
		return nil, ErrModelNotFound(modelID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, err := llama.New(mdl.Path, llama.SetContext(p.cfg.CtxSize))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", mdl.Path, err)
	}
	p.cfg.Logger.Info().Str("model", modelID).Str("path", mdl.Path).Int("ctx", p.cfg.CtxSize).Msg("llama model loaded")
	return &llamaModel{id: modelID, l: l, threads: p.cfg.Threads}, nil
}

// llamaModel owns a go-llama.cpp context. The context is not re-entrant,
// so every call holds mu.
type llamaModel struct {
	id      string
	threads int

	mu sync.Mutex
	l  *llama.LLama
}

func (m *llamaModel) ID() string { return m.id }

func (m *llamaModel) Tokenize(ctx context.Context, text string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.l == nil {
		return nil, errModelClosed
	}
	_, toks, err := m.l.TokenizeString(text, llama.SetThreads(m.threads))
	if err != nil {
		return nil, err
	}
	out := make([]int, len(toks))
	for i, t := range toks {
		out[i] = int(t)
	}
	return out, nil
}

func (m *llamaModel) Generate(ctx context.Context, prompt string, p Params) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.l == nil {
		return Result{}, errModelClosed
	}
	completion := 0
	m.l.SetTokenCallback(func(string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		completion++
		return true
	})

	text, err := m.l.Predict(prompt, predictOptions(p, m.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	return Result{Text: text, CompletionTokens: completion, FinishReason: "stop"}, nil
}

func (m *llamaModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.l == nil {
		return errors.New("llama model already closed")
	}
	m.l.Free()
	m.l = nil
	return nil
}

// predictOptions maps Params onto go-llama.cpp options.
func predictOptions(p Params, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, p.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTemperature(p.EffectiveTemperature()),
	}
	if p.RepeatPenalty > 0 {
		po = append(po, llama.SetPenalty(p.RepeatPenalty))
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	return po
}
