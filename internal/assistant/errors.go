package assistant

import (
	"errors"
	"fmt"
	"net/http"
)

// ModelLoadError reports that the provider could not load the model.
type ModelLoadError struct {
	ModelID string
	Err     error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.ModelID, e.Err)
}
func (e *ModelLoadError) Unwrap() error   { return e.Err }
func (e *ModelLoadError) StatusCode() int { return http.StatusServiceUnavailable }

// GenerationError reports a provider failure while generating.
type GenerationError struct{ Err error }

func (e *GenerationError) Error() string   { return "generate: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error   { return e.Err }
func (e *GenerationError) StatusCode() int { return http.StatusBadGateway }

// EmptyReplyError signals a completion that contained no text after extraction.
type EmptyReplyError struct{ Raw string }

func (e *EmptyReplyError) Error() string   { return "empty reply after extraction" }
func (e *EmptyReplyError) StatusCode() int { return http.StatusBadGateway }

// TooBusyError signals queue overflow or admission timeout.
type TooBusyError struct{ Reason string }

func (e *TooBusyError) Error() string   { return "too busy: " + e.Reason }
func (e *TooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// PromptTooLongError signals a prompt that leaves no room for the reply in
// the model context.
type PromptTooLongError struct {
	Tokens  int
	CtxSize int
}

func (e *PromptTooLongError) Error() string {
	return fmt.Sprintf("prompt too long: %d tokens + %d new exceeds context of %d", e.Tokens, MaxNewTokens, e.CtxSize)
}
func (e *PromptTooLongError) StatusCode() int { return http.StatusBadRequest }

// ErrEmptyMessage is returned by Generate for an empty message.
var ErrEmptyMessage = errors.New("empty message")

// ErrClosed is wrapped in the ModelLoadError returned after Close.
var ErrClosed = errors.New("assistant closed")

// IsTooBusy reports whether err indicates backpressure (429).
func IsTooBusy(err error) bool {
	var e *TooBusyError
	return errors.As(err, &e)
}

// IsModelLoad reports whether err is a model load failure.
func IsModelLoad(err error) bool {
	var e *ModelLoadError
	return errors.As(err, &e)
}

// IsGeneration reports whether err is a provider generation failure.
func IsGeneration(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}

// IsEmptyReply reports whether err is an empty extracted reply.
func IsEmptyReply(err error) bool {
	var e *EmptyReplyError
	return errors.As(err, &e)
}

// IsPromptTooLong reports whether err is a prompt length rejection.
func IsPromptTooLong(err error) bool {
	var e *PromptTooLongError
	return errors.As(err, &e)
}
