package assistant

import (
	"time"

	"github.com/rs/zerolog"

	"deephelper/internal/provider"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultPersona = "You are a helpful AI assistant named DeepHelper. " +
		"You help users with questions about programming, mathematics and other topics. " +
		"Be polite, helpful and accurate in your answers."
	DefaultUserMarker      = "User:"
	DefaultAssistantMarker = "Assistant:"

	defaultMaxConcurrent = 1
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultLoadTimeout   = 10 * time.Minute
)

// Generation parameters applied to every chat.
const (
	MaxNewTokens  = 200
	Temperature   = 0.7
	RepeatPenalty = 1.2
)

// Config encapsulates all tunables for Assistant construction.
type Config struct {
	Provider provider.Provider
	ModelID  string

	Persona         string
	UserMarker      string
	AssistantMarker string

	MaxConcurrent int
	MaxQueueDepth int
	MaxWait       time.Duration
	// ChatTimeout bounds one Generate call after admission. Zero disables it.
	ChatTimeout time.Duration
	// CtxSize enables the prompt length guard when positive.
	CtxSize int
	// LoadTimeout bounds one provider load. Loads do not inherit the
	// deadline of the request that triggered them.
	LoadTimeout time.Duration

	Logger    zerolog.Logger
	Publisher EventPublisher
}

func (c Config) withDefaults() Config {
	if c.Persona == "" {
		c.Persona = DefaultPersona
	}
	if c.UserMarker == "" {
		c.UserMarker = DefaultUserMarker
	}
	if c.AssistantMarker == "" {
		c.AssistantMarker = DefaultAssistantMarker
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = defaultMaxQueueDepth
	}
	if c.MaxWait <= 0 {
		c.MaxWait = defaultMaxWait
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = defaultLoadTimeout
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
