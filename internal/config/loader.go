package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Default() values in Merge.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// Model provider selection: server | subprocess | llama.
	Provider     string `json:"provider" yaml:"provider" toml:"provider"`
	ModelID      string `json:"model_id" yaml:"model_id" toml:"model_id"`
	ModelsDir    string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ServerURL    string `json:"server_url" yaml:"server_url" toml:"server_url"`
	APIKey       string `json:"api_key" yaml:"api_key" toml:"api_key"`
	LlamaBin     string `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	LlamaCtx     int    `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads int    `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`

	// Prompt shape.
	Persona         string `json:"persona" yaml:"persona" toml:"persona"`
	UserMarker      string `json:"user_marker" yaml:"user_marker" toml:"user_marker"`
	AssistantMarker string `json:"assistant_marker" yaml:"assistant_marker" toml:"assistant_marker"`

	// Request handling.
	MaxBodyBytes       int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	ChatTimeoutSeconds int64 `json:"chat_timeout_seconds" yaml:"chat_timeout_seconds" toml:"chat_timeout_seconds"`
	MaxConcurrent      int   `json:"max_concurrent" yaml:"max_concurrent" toml:"max_concurrent"`
	MaxQueueDepth      int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds     int64 `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
	Warmup             *bool `json:"warmup" yaml:"warmup" toml:"warmup"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled *bool    `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse toml %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
