package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"deephelper/internal/provider"
)

// fakeProvider counts loads and serves fakeModels.
type fakeProvider struct {
	loads    atomic.Int32
	failNext atomic.Int32 // number of upcoming loads that fail
	delay    time.Duration
	model    *fakeModel
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Load(ctx context.Context, modelID string) (provider.Model, error) {
	p.loads.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.failNext.Load() > 0 {
		p.failNext.Add(-1)
		return nil, errors.New("weights unavailable")
	}
	if p.model == nil {
		p.model = &fakeModel{}
	}
	p.model.id = modelID
	return p.model, nil
}

// fakeModel echoes a canned completion or calls gen.
type fakeModel struct {
	id         string
	completion string
	gen        func(ctx context.Context, prompt string, p provider.Params) (provider.Result, error)

	mu         sync.Mutex
	lastPrompt string
	lastParams provider.Params
	closed     bool
}

func (m *fakeModel) ID() string { return m.id }

func (m *fakeModel) Tokenize(ctx context.Context, text string) ([]int, error) {
	return make([]int, len(strings.Fields(text))), nil
}

func (m *fakeModel) Generate(ctx context.Context, prompt string, p provider.Params) (provider.Result, error) {
	m.mu.Lock()
	m.lastPrompt, m.lastParams = prompt, p
	m.mu.Unlock()
	if m.gen != nil {
		return m.gen(ctx, prompt, p)
	}
	return provider.Result{Text: m.completion, CompletionTokens: len(strings.Fields(m.completion))}, nil
}

func (m *fakeModel) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func newTestAssistant(p provider.Provider, mutate ...func(*Config)) *Assistant {
	cfg := Config{Provider: p, ModelID: "microsoft/DialoGPT-medium", Logger: zerolog.Nop()}
	for _, f := range mutate {
		f(&cfg)
	}
	return New(cfg)
}
