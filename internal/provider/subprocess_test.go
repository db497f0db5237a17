package provider

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPickPortInRange_SkipsBusyPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	busy := l.Addr().(*net.TCPAddr).Port
	if _, err := pickPortInRange("127.0.0.1", busy, busy); err == nil {
		t.Fatalf("expected no free port when the only candidate is busy")
	}
	p, err := pickPortInRange("127.0.0.1", busy, busy+20)
	if err != nil {
		t.Fatalf("pickPortInRange: %v", err)
	}
	if p == busy {
		t.Fatalf("picked busy port %d", p)
	}
}

func writeModel(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("gguf"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
}

func TestSubprocessProvider_ModelNotFound(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "other.Q4_K_M.gguf")
	p := NewSubprocessProvider(SubprocessConfig{ModelsDir: dir, Bin: "/bin/true", Logger: zerolog.Nop()})
	if _, err := p.Load(context.Background(), "microsoft/DialoGPT-medium"); !IsModelNotFound(err) {
		t.Fatalf("expected model not found, got %v", err)
	}
}

func TestSubprocessProvider_MissingBinary(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "DialoGPT-medium.Q8_0.gguf")
	p := NewSubprocessProvider(SubprocessConfig{ModelsDir: dir, Bin: filepath.Join(dir, "nope"), Logger: zerolog.Nop()})
	_, err := p.Load(context.Background(), "microsoft/DialoGPT-medium")
	if !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

// buildFakeServer compiles testdata/fake_llama_server.go; tests are skipped
// when no go toolchain is available.
func buildFakeServer(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("signals not supported")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not on PATH")
	}
	out := filepath.Join(t.TempDir(), "llama-server")
	cmd := exec.Command(goBin, "build", "-o", out, "./testdata/fake_llama_server.go")
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build fake server: %v\n%s", err, b)
	}
	return out
}

func TestSubprocessProvider_SpawnGenerateClose(t *testing.T) {
	bin := buildFakeServer(t)
	dir := t.TempDir()
	writeModel(t, dir, "DialoGPT-medium.Q8_0.gguf")

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	start := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	p := NewSubprocessProvider(SubprocessConfig{
		Bin:          bin,
		ModelsDir:    dir,
		PortStart:    start,
		PortEnd:      start + 50,
		StartTimeout: 20 * time.Second,
		Logger:       zerolog.Nop(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m, err := p.Load(ctx, "microsoft/DialoGPT-medium")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close()

	res, err := m.Generate(ctx, "User: 2+2=?\nAssistant:", Params{MaxTokens: 200, DoSample: true, Temperature: 0.7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Text != " Four." {
		t.Fatalf("text=%q", res.Text)
	}
	toks, err := m.Tokenize(ctx, "a b")
	if err != nil || len(toks) != 2 {
		t.Fatalf("Tokenize: %v %v", toks, err)
	}

	pm := m.(*procModel)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-pm.exited:
	case <-time.After(5 * time.Second):
		t.Fatalf("child pid %s still running", strconv.Itoa(pm.cmd.Process.Pid))
	}
}
