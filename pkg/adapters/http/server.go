// Package http exposes the dialogue engine over HTTP.
//
// Routes are described by the embedded OpenAPI document, which also drives
// request validation. Session changes can be followed live through the
// /events server-sent event stream.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultHistoryLimit is the number of turns GET /sessions/{id}/history returns without ?limit.
const DefaultHistoryLimit = 5

// Server implements ServerInterface over a ports.Dialogue.
type Server struct {
	Engine   ports.Dialogue
	Streams  *StreamManager
	Gatherer prometheus.Gatherer
	Version  string
	Logger   *slog.Logger
	Now      func() time.Time
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures the Server built by NewHandler.
type Option func(*Server)

// WithStreams shares a StreamManager that is also registered as the engine's turn observer.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithGatherer serves g on /metrics. Without it /metrics is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.Gatherer = g }
}

// WithVersion sets the version reported by /health and /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// WithClock overrides the time source for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.Now = now }
}

// NewHandler creates a new HTTP handler for the engine. Messages are
// sanitized before they reach the engine.
func NewHandler(engine ports.Dialogue, opts ...Option) (http.Handler, error) {
	server := &Server{
		Engine:  runner.Chain(engine, runner.Sanitize()),
		Version: "dev",
		Logger:  logging.NewNop(),
		Now:     time.Now,
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.Logger)
	}

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validate, err := validator(doc, server.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build request validator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)
		HandlerFromMux(server, r)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Parley API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// ProcessMessage handles the POST /chat request.
func (s *Server) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Chat: Invalid request body", "err", err)
		return
	}

	result, err := s.Engine.ProcessMessage(r.Context(), body.SessionID, body.Message)
	if err != nil {
		status := statusFor(err)
		http.Error(w, fmt.Sprintf("Chat error: %v", err), status)
		if status >= http.StatusInternalServerError {
			s.Logger.Error("Chat failed", "session_id", body.SessionID, "err", err)
		} else {
			s.Logger.Warn("Chat rejected", "session_id", body.SessionID, "err", err)
		}
		return
	}

	s.writeJSON(w, ChatResponse{TurnResult: result, Timestamp: s.Now().UTC()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSessionID),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8),
		errors.Is(err, runner.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrClassifierNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{Status: "healthy", Timestamp: s.Now().UTC(), Version: s.Version})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, map[string]string{
		"app":         "parley-http",
		"version":     strings.TrimSpace(s.Version),
		"api_version": apiVersion,
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.Engine.ListSessions(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("ListSessions failed", "err", err)
		return
	}
	if list == nil {
		list = []domain.Summary{}
	}
	s.writeJSON(w, SessionList{Sessions: list, Total: len(list)})
}

// GetSession handles the GET /sessions/{session_id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, ok := s.load(w, r, sessionID)
	if !ok {
		return
	}
	s.writeJSON(w, sess)
}

// DeleteSession handles the DELETE /sessions/{session_id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.Engine.DeleteSession(r.Context(), sessionID); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), statusFor(err))
		s.Logger.Error("DeleteSession failed", "session_id", sessionID, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles the GET /sessions/{session_id}/history request.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request, sessionID string, params GetHistoryParams) {
	sess, ok := s.load(w, r, sessionID)
	if !ok {
		return
	}

	limit := DefaultHistoryLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	turns := sess.History
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	s.writeJSON(w, HistoryResponse{SessionID: sessionID, Turns: turns})
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, sessionID string) (*domain.Session, bool) {
	sess, err := s.Engine.GetSession(r.Context(), sessionID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			http.Error(w, "Session not found", status)
			return nil, false
		}
		http.Error(w, fmt.Sprintf("Session error: %v", err), status)
		s.Logger.Error("GetSession failed", "session_id", sessionID, "err", err)
		return nil, false
	}
	return sess, true
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := params.SessionId
	s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if params.Watch != nil {
		watchList = strings.Split(*params.Watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watched reports whether the diff in msg touches any watched field.
// Unparseable payloads are always delivered.
func watched(msg string, watchList []string) bool {
	var diff domain.SessionDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "state":
			if diff.State != nil {
				return true
			}
		case "slots":
			if len(diff.Slots) > 0 {
				return true
			}
		case "history":
			if len(diff.Appended) > 0 {
				return true
			}
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}
