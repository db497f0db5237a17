package types

// ChatRequest is the payload accepted by POST /api/chat.
type ChatRequest struct {
	// User message to answer. Required, must not be empty.
	// example: 2+2=?
	Message string `json:"message" example:"2+2=?"`
}

// ChatResponse is returned by POST /api/chat on success.
type ChatResponse struct {
	// Generated assistant reply.
	// example: 2+2 equals 4.
	Response string `json:"response" example:"2+2 equals 4."`
	// Always "success" for a 200 response.
	// example: success
	Status string `json:"status" example:"success"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	// Always "online" while the server answers.
	// example: online
	Status string `json:"status" example:"online"`
	// Whether the model has been loaded.
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// Display name of the assistant.
	// example: DeepHelper AI
	Name string `json:"name" example:"DeepHelper AI"`
	// Identifier of the configured model.
	// example: microsoft/DialoGPT-medium
	Model string `json:"model,omitempty" example:"microsoft/DialoGPT-medium"`
}

// ModelsResponse wraps the list of models returned by GET /api/models.
type ModelsResponse struct {
	// Models found in the configured models directory.
	Models []Model `json:"models"`
}

// LoadEvent is one model lifecycle event returned by GET /api/events.
type LoadEvent struct {
	// Event name: load_start, load_ready or load_error.
	// example: load_ready
	Name string `json:"name" example:"load_ready"`
	// example: microsoft/DialoGPT-medium
	ModelID string `json:"model_id" example:"microsoft/DialoGPT-medium"`
	// Identifier shared by the events of one load attempt.
	LoadID string `json:"load_id" example:"0b8f3c52-3f0e-4b8e-9d55-0d1f6f7e3a11"`
	// RFC 3339 timestamp.
	Time string `json:"time" example:"2026-10-19T12:00:00Z"`
	// Error text for load_error events.
	Error string `json:"error,omitempty" example:"llama server unreachable"`
}

// EventsResponse wraps the recent lifecycle events, oldest first.
type EventsResponse struct {
	Events []LoadEvent `json:"events"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: empty message
	Error string `json:"error" example:"empty message"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// Status values used in responses.
const (
	StatusSuccess = "success"
	StatusOnline  = "online"
)
