package http

import (
	_ "embed"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	swaggerOnce sync.Once
	swagger     *openapi3.T
	swaggerErr  error
)

// GetSwagger returns the parsed OpenAPI document served at /openapi.yaml.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		swagger, swaggerErr = loader.LoadFromData(rawSpec)
		if swaggerErr != nil {
			swaggerErr = fmt.Errorf("error loading OpenAPI document: %w", swaggerErr)
		}
	})
	return swagger, swaggerErr
}

// ChatRequest defines the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the turn result stamped with the server time.
type ChatResponse struct {
	domain.TurnResult
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse defines the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// SessionList defines the body of GET /sessions.
type SessionList struct {
	Sessions []domain.Summary `json:"sessions"`
	Total    int              `json:"total"`
}

// HistoryResponse defines the body of GET /sessions/{session_id}/history.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []domain.Turn `json:"turns"`
}

// GetHistoryParams defines parameters for GetHistory.
type GetHistoryParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// SubscribeEventsParams defines parameters for SubscribeEvents.
type SubscribeEventsParams struct {
	SessionId string  `form:"session_id" json:"session_id"`
	Watch     *string `form:"watch,omitempty" json:"watch,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /chat)
	ProcessMessage(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
	// (GET /sessions)
	ListSessions(w http.ResponseWriter, r *http.Request)
	// (GET /sessions/{session_id})
	GetSession(w http.ResponseWriter, r *http.Request, sessionID string)
	// (DELETE /sessions/{session_id})
	DeleteSession(w http.ResponseWriter, r *http.Request, sessionID string)
	// (GET /sessions/{session_id}/history)
	GetHistory(w http.ResponseWriter, r *http.Request, sessionID string, params GetHistoryParams)
	// (GET /events)
	SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper binds path and query parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var sessionID string
	err := runtime.BindStyledParameterWithOptions("simple", "session_id", chi.URLParam(r, "session_id"), &sessionID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "session_id", Err: err})
		return "", false
	}
	return sessionID, true
}

// GetSession operation middleware
func (siw *ServerInterfaceWrapper) GetSession(w http.ResponseWriter, r *http.Request) {
	if id, ok := siw.sessionID(w, r); ok {
		siw.Handler.GetSession(w, r, id)
	}
}

// DeleteSession operation middleware
func (siw *ServerInterfaceWrapper) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if id, ok := siw.sessionID(w, r); ok {
		siw.Handler.DeleteSession(w, r, id)
	}
}

// GetHistory operation middleware
func (siw *ServerInterfaceWrapper) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.sessionID(w, r)
	if !ok {
		return
	}

	var params GetHistoryParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	siw.Handler.GetHistory(w, r, id, params)
}

// SubscribeEvents operation middleware
func (siw *ServerInterfaceWrapper) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var params SubscribeEventsParams
	if err := runtime.BindQueryParameter("form", true, true, "session_id", r.URL.Query(), &params.SessionId); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "session_id", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &params.Watch); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "watch", Err: err})
		return
	}
	siw.Handler.SubscribeEvents(w, r, params)
}

// HandlerFromMux mounts every operation of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		},
	}

	r.Post("/chat", si.ProcessMessage)
	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	r.Get("/sessions", si.ListSessions)
	r.Get("/sessions/{session_id}", wrapper.GetSession)
	r.Delete("/sessions/{session_id}", wrapper.DeleteSession)
	r.Get("/sessions/{session_id}/history", wrapper.GetHistory)
	r.Get("/events", wrapper.SubscribeEvents)
	return r
}
