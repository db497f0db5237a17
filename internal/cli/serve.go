package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"deephelper/internal/assistant"
	"deephelper/internal/config"
	"deephelper/internal/httpapi"
	"deephelper/internal/provider"
	"deephelper/internal/registry"
	"deephelper/pkg/types"
)

const shutdownTimeout = 5 * time.Second

func runServeCmd(cmd *cobra.Command, o *Options) error {
	if err := loadEnvFile(o.EnvFile); err != nil {
		return err
	}
	cfg, err := resolveConfig(o, cmd.Flags(), fnLookupEnv)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel, cfg.LogFormat, o.Stderr)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runServe(ctx, cfg, log)
}

// recentEventsLimit bounds the load events kept for GET /api/events.
const recentEventsLimit = 50

// eventService exposes the assistant's recent load events.
type eventService struct {
	*assistant.Assistant
	events *assistant.MemoryPublisher
}

func (s eventService) RecentEvents() []types.LoadEvent {
	evs := s.events.Events()
	out := make([]types.LoadEvent, 0, len(evs))
	for _, e := range evs {
		le := types.LoadEvent{Name: e.Name, ModelID: e.ModelID, LoadID: e.LoadID, Time: e.Time.UTC().Format(time.RFC3339Nano)}
		if msg, ok := e.Fields["error"].(string); ok {
			le.Error = msg
		}
		out = append(out, le)
	}
	return out
}

// localService adds model listing for providers that read model files from
// disk.
type localService struct {
	eventService
	modelsDir string
}

func (s localService) ListModels() ([]types.Model, error) { return registry.LoadDir(s.modelsDir) }

// newAssistant wires the provider selected by cfg into an Assistant.
func newAssistant(cfg config.Config, log zerolog.Logger, pub assistant.EventPublisher) (*assistant.Assistant, error) {
	prov, err := fnNewProvider(cfg, log.With().Str("component", "provider").Logger())
	if err != nil {
		return nil, err
	}
	ac := assistant.Config{
		Provider:        prov,
		ModelID:         cfg.ModelID,
		Persona:         cfg.Persona,
		UserMarker:      cfg.UserMarker,
		AssistantMarker: cfg.AssistantMarker,
		MaxConcurrent:   cfg.MaxConcurrent,
		MaxQueueDepth:   cfg.MaxQueueDepth,
		MaxWait:         time.Duration(cfg.MaxWaitSeconds) * time.Second,
		ChatTimeout:     time.Duration(cfg.ChatTimeoutSeconds) * time.Second,
		Logger:          log,
		Publisher:       pub,
	}
	// The context size of a remote server is unknown here.
	if cfg.Provider != config.ProviderServer {
		ac.CtxSize = cfg.LlamaCtx
	}
	return assistant.New(ac), nil
}

// runServe serves HTTP until ctx is done, then shuts down gracefully and
// releases the model.
func runServe(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	events := assistant.NewRecentPublisher(recentEventsLimit)
	asst, err := newAssistant(cfg, log, events)
	if err != nil {
		return err
	}
	defer func() {
		if err := asst.Close(); err != nil {
			log.Warn().Err(err).Msg("close model")
		}
	}()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetDefaultRequestLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled == nil || *cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)

	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	defer httpapi.SetBaseContext(nil)

	es := eventService{Assistant: asst, events: events}
	var svc httpapi.Service = es
	if cfg.Provider != config.ProviderServer {
		svc = localService{eventService: es, modelsDir: cfg.ModelsDir}
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info().
		Str("addr", ln.Addr().String()).
		Str("provider", cfg.Provider).
		Str("model", cfg.ModelID).
		Bool("llama_built", provider.LlamaBuilt()).
		Msg("deephelper listening")
	fnOnListening(ln.Addr())

	if cfg.Warmup != nil && *cfg.Warmup {
		asst.Warmup(baseCtx)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	log.Info().Msg("shutting down")
	cancelBase()
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
