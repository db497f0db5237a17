package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"deephelper/internal/registry"
)

// SubprocessConfig configures a provider that spawns llama-server per model.
type SubprocessConfig struct {
	// Bin is the llama-server binary. Empty means discovery on PATH.
	Bin       string
	ModelsDir string
	Host      string
	// PortStart/PortEnd bound the ports tried for the child server.
	PortStart int
	PortEnd   int
	CtxSize   int
	Threads   int
	// StartTimeout bounds the wait for the child to become healthy.
	StartTimeout   time.Duration
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// SubprocessProvider resolves model identifiers to *.gguf files and serves
// each one from its own llama-server child process.
type SubprocessProvider struct {
	cfg SubprocessConfig
	log zerolog.Logger
}

// NewSubprocessProvider applies defaults and returns the provider.
func NewSubprocessProvider(cfg SubprocessConfig) *SubprocessProvider {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.PortStart <= 0 {
		cfg.PortStart = 31000
	}
	if cfg.PortEnd < cfg.PortStart {
		cfg.PortEnd = cfg.PortStart + 100
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 2 * time.Minute
	}
	return &SubprocessProvider{cfg: cfg, log: cfg.Logger}
}

func (p *SubprocessProvider) Name() string { return "subprocess" }

// Load resolves modelID through the registry, spawns llama-server for the
// file and waits until it answers health checks.
func (p *SubprocessProvider) Load(ctx context.Context, modelID string) (Model, error) {
	models, err := registry.LoadDir(p.cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("scan models dir: %w", err)
	}
	mdl, ok := registry.Resolve(models, modelID)
	if !ok {
		return nil, ErrModelNotFound(modelID)
	}
	bin := p.cfg.Bin
	if bin == "" {
		bin = discoverLlamaBin()
	}
	if bin == "" {
		return nil, ErrDependencyUnavailable("llama-server not found (set llama_bin or add it to PATH)")
	}
	if fi, err := os.Stat(bin); err != nil || fi.IsDir() {
		return nil, ErrDependencyUnavailable("llama-server not usable at " + bin)
	}
	port, err := pickPortInRange(p.cfg.Host, p.cfg.PortStart, p.cfg.PortEnd)
	if err != nil {
		return nil, err
	}
	args := []string{"-m", mdl.Path, "--host", p.cfg.Host, "--port", strconv.Itoa(port)}
	if p.cfg.CtxSize > 0 {
		args = append(args, "-c", strconv.Itoa(p.cfg.CtxSize))
	}
	if p.cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(p.cfg.Threads))
	}
	cmd := exec.Command(bin, args...)
	if p.log.GetLevel() <= zerolog.DebugLevel {
		out := p.log.With().Str("proc", "llama-server").Logger()
		cmd.Stdout = out
		cmd.Stderr = out
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start llama-server: %w", err)
	}
	pm := &procModel{cmd: cmd, exited: make(chan struct{}), log: p.log}
	go func() {
		pm.waitErr = cmd.Wait()
		close(pm.exited)
	}()
	baseURL := "http://" + net.JoinHostPort(p.cfg.Host, strconv.Itoa(port))
	srv := NewServerProvider(ServerConfig{BaseURL: baseURL, RequestTimeout: p.cfg.RequestTimeout, Logger: p.log})
	p.log.Info().Str("model", modelID).Str("path", mdl.Path).Int("pid", cmd.Process.Pid).Int("port", port).Msg("llama-server spawned")

	if err := pm.waitHealthy(ctx, srv, p.cfg.StartTimeout); err != nil {
		_ = pm.Close()
		return nil, err
	}
	pm.serverModel = &serverModel{p: srv, id: modelID, served: mdl.ID}
	p.log.Info().Str("model", modelID).Int("pid", cmd.Process.Pid).Msg("llama-server ready")
	return pm, nil
}

// procModel is a serverModel whose server process it owns.
type procModel struct {
	*serverModel
	cmd     *exec.Cmd
	exited  chan struct{}
	waitErr error
	log     zerolog.Logger

	closeOnce sync.Once
}

func (m *procModel) waitHealthy(ctx context.Context, srv *ServerProvider, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		if srv.healthy(time.Second) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return fmt.Errorf("llama-server exited before ready: %v", m.waitErr)
		case <-deadline.C:
			return fmt.Errorf("llama-server not ready after %s", timeout)
		case <-tick.C:
		}
	}
}

// Close terminates the child: SIGTERM first, SIGKILL after a grace period.
func (m *procModel) Close() error {
	var err error
	m.closeOnce.Do(func() {
		if m.serverModel != nil {
			_ = m.serverModel.Close()
		}
		if m.cmd.Process == nil {
			return
		}
		_ = m.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-m.exited:
		case <-time.After(3 * time.Second):
			err = m.cmd.Process.Kill()
			<-m.exited
		}
		m.log.Info().Int("pid", m.cmd.Process.Pid).Msg("llama-server stopped")
	})
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func pickPortInRange(host string, start, end int) (int, error) {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		_ = l.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

// discoverLlamaBin looks for llama-server on PATH and in common build dirs.
func discoverLlamaBin() string {
	if p, err := exec.LookPath("llama-server"); err == nil {
		return p
	}
	home, _ := os.UserHomeDir()
	for _, c := range []string{
		filepath.Join(home, "llama.cpp", "build", "bin", "llama-server"),
		"/usr/local/bin/llama-server",
	} {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c
		}
	}
	return ""
}
