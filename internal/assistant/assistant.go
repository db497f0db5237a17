package assistant

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Assistant holds the model handles for one configured model identifier.
// The zero value is not usable; construct with New.
type Assistant struct {
	cfg Config
	log zerolog.Logger
	pub EventPublisher

	// loadCtx outlives individual requests; Close cancels it.
	loadCtx   context.Context
	stopLoads context.CancelFunc

	mu       sync.RWMutex
	pipe     *pipeline   // non-nil iff loaded
	inflight *loadFlight // non-nil while a provider load runs
	closed   bool
	lastErr  error
	attempts int

	queueCh chan struct{}
	genCh   chan struct{}
}

// New constructs an Assistant. The model is not loaded until EnsureLoaded or
// the first Generate.
func New(cfg Config) *Assistant {
	cfg = cfg.withDefaults()
	if cfg.Provider == nil {
		panic("assistant: nil provider")
	}
	loadCtx, stop := context.WithCancel(context.Background())
	return &Assistant{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "assistant").Logger(),
		pub:       cfg.Publisher,
		loadCtx:   loadCtx,
		stopLoads: stop,
		queueCh:   make(chan struct{}, cfg.MaxQueueDepth),
		genCh:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

// ModelID returns the configured model identifier.
func (a *Assistant) ModelID() string { return a.cfg.ModelID }

// Loaded reports whether a model load has succeeded. It never triggers a load.
func (a *Assistant) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pipe != nil
}

// Status is a read-only projection of the load state.
type Status struct {
	ModelID   string
	Loaded    bool
	Attempts  int
	LastError string
}

// Status returns the current load state.
func (a *Assistant) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st := Status{ModelID: a.cfg.ModelID, Loaded: a.pipe != nil, Attempts: a.attempts}
	if a.lastErr != nil {
		st.LastError = a.lastErr.Error()
	}
	return st
}

// Close aborts a running load and releases the loaded model, if any. Later
// EnsureLoaded calls fail with ErrClosed.
func (a *Assistant) Close() error {
	a.mu.Lock()
	a.closed = true
	p := a.pipe
	a.pipe = nil
	a.mu.Unlock()
	a.stopLoads()
	if p == nil {
		return nil
	}
	modelLoaded.Set(0)
	return p.model.Close()
}

func (a *Assistant) current() *pipeline {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pipe
}
