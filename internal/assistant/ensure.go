package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// loadFlight is one provider load shared by every caller that arrived while
// it was running. done is closed after err is set.
type loadFlight struct {
	done chan struct{}
	err  error
}

// EnsureLoaded loads the configured model unless it is already loaded.
//
// Loads are single-flight: callers arriving while a load is running wait for
// it and return its outcome. The load runs on the Assistant's own context, so
// a caller giving up (ctx done) stops waiting without aborting it. A failed
// load leaves the Assistant unloaded and the next call retries from scratch.
func (a *Assistant) EnsureLoaded(ctx context.Context) error {
	if a.current() != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	switch {
	case a.pipe != nil:
		a.mu.Unlock()
		return nil
	case a.closed:
		a.mu.Unlock()
		return &ModelLoadError{ModelID: a.cfg.ModelID, Err: ErrClosed}
	}
	f := a.inflight
	if f == nil {
		f = &loadFlight{done: make(chan struct{})}
		a.inflight = f
		go a.load(f)
	}
	a.mu.Unlock()

	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load runs one provider load and publishes its outcome on f.
func (a *Assistant) load(f *loadFlight) {
	ctx, cancel := context.WithTimeout(a.loadCtx, a.cfg.LoadTimeout)
	defer cancel()

	start := time.Now()
	modelID := a.cfg.ModelID
	provName := a.cfg.Provider.Name()
	loadID := uuid.NewString()
	log := a.log.With().Str("load_id", loadID).Str("model", modelID).Logger()
	log.Info().Str("event", EventLoadStart).Str("provider", provName).Msg("loading model")
	a.pub.Publish(Event{Name: EventLoadStart, ModelID: modelID, LoadID: loadID, Time: time.Now(), Fields: map[string]any{"provider": provName}})

	m, err := a.cfg.Provider.Load(ctx, modelID)
	dur := time.Since(start)
	modelLoadDuration.Observe(dur.Seconds())

	a.mu.Lock()
	a.attempts++
	a.inflight = nil
	if err == nil && a.closed {
		// Close ran while the provider was still loading.
		_ = m.Close()
		m, err = nil, ErrClosed
	}
	if err != nil {
		f.err = &ModelLoadError{ModelID: modelID, Err: err}
		a.lastErr = f.err
	} else {
		a.lastErr = nil
		a.pipe = newPipeline(m, a.cfg)
	}
	a.mu.Unlock()

	if err != nil {
		modelLoadsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("event", EventLoadError).Dur("dur", dur).Msg("model load failed")
		a.pub.Publish(Event{Name: EventLoadError, ModelID: modelID, LoadID: loadID, Time: time.Now(), Fields: map[string]any{"error": err.Error()}})
	} else {
		modelLoaded.Set(1)
		modelLoadsTotal.WithLabelValues("ok").Inc()
		log.Info().Str("event", EventLoadReady).Dur("dur", dur).Msg("model ready")
		a.pub.Publish(Event{Name: EventLoadReady, ModelID: modelID, LoadID: loadID, Time: time.Now(), Fields: map[string]any{"dur_ms": int(dur / time.Millisecond)}})
	}
	close(f.done)
}

// Warmup loads the model in the background. Errors are logged; the next
// EnsureLoaded retries.
func (a *Assistant) Warmup(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := a.EnsureLoaded(ctx)
		if err != nil {
			a.log.Warn().Err(err).Msg("warmup failed")
		}
		done <- err
		close(done)
	}()
	return done
}
