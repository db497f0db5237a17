package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deephelper/internal/assistant"
	"deephelper/pkg/types"
	"deephelper/web"
)

// AssistantName is reported by GET /api/status.
const AssistantName = "DeepHelper AI"

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, message string) (string, error)
	// Loaded must not trigger a load.
	Loaded() bool
	ModelID() string
}

// ModelLister is implemented by services that can enumerate local models.
// Without it GET /api/models answers 404.
type ModelLister interface {
	ListModels() ([]types.Model, error)
}

// EventLister is implemented by services that record model lifecycle events.
// Without it GET /api/events answers 404.
type EventLister interface {
	RecentEvents() []types.LoadEvent
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware)
	r.Use(recoverJSON)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	page := web.Handler()
	r.Get("/", page.ServeHTTP)
	r.Head("/", page.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", handleChat(svc))
		r.Get("/status", handleStatus(svc))
		r.Get("/models", handleModels(svc))
		r.Get("/events", handleEvents(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Loaded() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleChat answers one chat message.
//
// @Summary      Chat with the assistant
// @Description  Generates a reply to the message. The model is loaded on first use.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body      types.ChatRequest  true  "Chat message"
// @Success      200      {object}  types.ChatResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      504      {object}  types.ErrorResponse
// @Router       /api/chat [post]
func handleChat(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)

		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, msgUnsupportedMedia)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// Oversized bodies get the same answer to avoid leaking the limit.
			writeJSONError(w, http.StatusBadRequest, msgInvalidJSON)
			logChatEnd(r, lvl, http.StatusBadRequest, start, err)
			return
		}
		if req.Message == "" {
			writeJSONError(w, http.StatusBadRequest, msgEmptyMessage)
			return
		}

		if lvl >= LevelInfo {
			ev := zlog.Info().Int("message_len", len(req.Message))
			if lvl >= LevelDebug {
				ev = ev.Str("message", req.Message)
			}
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				ev = ev.Str("request_id", rid)
			}
			ev.Msg("chat start")
		}

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		reply, err := svc.Generate(ctx, req.Message)
		if err != nil {
			if r.Context().Err() != nil {
				// Client went away; nobody reads the response.
				logChatEnd(r, lvl, 499, start, err)
				return
			}
			status, msg := mapError(err)
			if serverBaseCtx.Err() != nil && errors.Is(err, context.Canceled) {
				status, msg = http.StatusServiceUnavailable, "server shutting down"
			}
			if status == http.StatusTooManyRequests {
				reason := "busy"
				var busy *assistant.TooBusyError
				if errors.As(err, &busy) {
					reason = busy.Reason
				}
				IncrementBackpressure(reason)
			}
			chatErrorsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
			writeJSONError(w, status, msg)
			logChatEnd(r, lvl, status, start, err)
			return
		}
		if lvl >= LevelDebug {
			zlog.Debug().Str("request_id", middleware.GetReqID(r.Context())).Str("response", reply).Msg("chat reply")
		}
		writeJSON(w, http.StatusOK, types.ChatResponse{Response: reply, Status: types.StatusSuccess})
		logChatEnd(r, lvl, http.StatusOK, start, nil)
	}
}

// handleStatus reports whether the model is loaded. It never loads it.
//
// @Summary      Service status
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /api/status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.StatusResponse{
			Status:      types.StatusOnline,
			ModelLoaded: svc.Loaded(),
			Name:        AssistantName,
			Model:       svc.ModelID(),
		})
	}
}

// handleModels lists model files available to local backends.
//
// @Summary      List local models
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Failure      404  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /api/models [get]
func handleModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ml, ok := svc.(ModelLister)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "model listing not available")
			return
		}
		models, err := ml.ListModels()
		if err != nil {
			zlog.Error().Err(err).Msg("list models")
			writeJSONError(w, http.StatusInternalServerError, "failed to list models")
			return
		}
		if models == nil {
			models = []types.Model{}
		}
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
	}
}

// handleEvents returns the recent model load events, oldest first.
//
// @Summary      Recent model lifecycle events
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.EventsResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/events [get]
func handleEvents(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		el, ok := svc.(EventLister)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "events not available")
			return
		}
		events := el.RecentEvents()
		if events == nil {
			events = []types.LoadEvent{}
		}
		writeJSON(w, http.StatusOK, types.EventsResponse{Events: events})
	}
}
