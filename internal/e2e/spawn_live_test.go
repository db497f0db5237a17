package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"deephelper/internal/assistant"
	"deephelper/internal/provider"
)

// TestSpawnMode_LiveReply chats with a real model through a spawned
// llama-server. Skips unless LLAMA_BIN points to llama-server and
// ~/models/llm holds at least one .gguf file.
func TestSpawnMode_LiveReply(t *testing.T) {
	llamaBin := strings.TrimSpace(os.Getenv("LLAMA_BIN"))
	if llamaBin == "" {
		t.Skip("LLAMA_BIN not set; skipping spawn-mode live test")
	}
	home, _ := os.UserHomeDir()
	modelsDir := filepath.Join(home, "models", "llm")
	ents, _ := os.ReadDir(modelsDir)
	var modelID string
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".gguf") {
			modelID = e.Name()
			break
		}
	}
	if modelID == "" {
		t.Skip("no GGUF found under ~/models/llm; skipping spawn-mode live test")
	}

	prov := provider.NewSubprocessProvider(provider.SubprocessConfig{
		Bin:            llamaBin,
		ModelsDir:      modelsDir,
		CtxSize:        2048,
		RequestTimeout: 90 * time.Second,
		Logger:         zerolog.Nop(),
	})
	asst := assistant.New(assistant.Config{Provider: prov, ModelID: modelID, CtxSize: 2048, Logger: zerolog.Nop()})
	defer asst.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	reply, err := asst.Generate(ctx, "2+2=?")
	if err != nil && !assistant.IsEmptyReply(err) {
		t.Fatalf("Generate: %v", err)
	}
	t.Logf("\n----- REPLY (spawn mode, %s) -----\n%s\n----------------------------------\n", modelID, reply)
}
