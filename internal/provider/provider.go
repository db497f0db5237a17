// Package provider defines the contract with the pretrained language-model
// runtime and ships the backends the assistant can load models from:
//
//   - server.go: a running llama.cpp server reached over HTTP.
//   - subprocess.go: a llama.cpp server spawned per model file.
//   - llama.go: in-process go-llama.cpp (build with `-tags=llama`);
//     llama_stub.go replaces it in default CGO-free builds.
//
// The assistant treats every backend as a black box: Load once, then
// Tokenize and Generate many times, Close on shutdown.
package provider

import "context"

// Provider acquires models by identifier.
type Provider interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Load resolves modelID and returns a ready model. It fails with a
	// model-not-found error when the identifier cannot be resolved.
	Load(ctx context.Context, modelID string) (Model, error)
}

// Tokenizer converts text to model token ids.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]int, error)
}

// Generator runs autoregressive generation for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, p Params) (Result, error)
}

// Model is a loaded pretrained artifact. Tokenizer and Generator always
// refer to the same underlying weights.
type Model interface {
	Tokenizer
	Generator
	// ID returns the identifier the model was loaded with.
	ID() string
	// Close releases resources held by the model.
	Close() error
}

// Params captures generation parameters passed to a backend.
type Params struct {
	// MaxTokens caps the number of newly generated tokens.
	MaxTokens int
	// Temperature is ignored (greedy decoding) when DoSample is false.
	Temperature   float32
	DoSample      bool
	RepeatPenalty float32
	// NumReturn is the number of samples; backends return the first one.
	NumReturn int
	Stop      []string
	Seed      int
}

// EffectiveTemperature returns the temperature a backend should send.
func (p Params) EffectiveTemperature() float32 {
	if !p.DoSample {
		return 0
	}
	return p.Temperature
}

// Result summarizes one generation.
type Result struct {
	// Text is the generated continuation, without the prompt.
	Text             string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
}
