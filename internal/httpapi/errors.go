package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"deephelper/internal/assistant"
	"deephelper/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// Client-facing error messages. Details stay in the server log.
const (
	msgEmptyMessage     = "empty message"
	msgInvalidJSON      = "invalid JSON body"
	msgUnsupportedMedia = "Content-Type must be application/json"
	msgModelUnavailable = "model unavailable"
	msgGenerationFailed = "generation failed"
	msgEmptyReply       = "empty reply"
	msgTooBusy          = "too busy"
	msgPromptTooLong    = "message too long"
	msgTimeout          = "generation timed out"
	msgInternal         = "internal server error"
)

// mapError returns the status and message for an error from the chat service.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		return http.StatusBadRequest, msgEmptyMessage
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgTimeout
	case assistant.IsModelLoad(err):
		return http.StatusServiceUnavailable, msgModelUnavailable
	case assistant.IsTooBusy(err):
		return http.StatusTooManyRequests, msgTooBusy
	case assistant.IsPromptTooLong(err):
		return http.StatusBadRequest, msgPromptTooLong
	case assistant.IsEmptyReply(err):
		return http.StatusBadGateway, msgEmptyReply
	case assistant.IsGeneration(err):
		return http.StatusBadGateway, msgGenerationFailed
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), http.StatusText(he.StatusCode())
	}
	return http.StatusInternalServerError, msgInternal
}
