package services

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/analytics-agent/agentboot"
	"github.com/SaiNageswarS/analytics-agent/pipeline"
	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/SaiNageswarS/analytics-agent/session"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RunRequest is the body of /run and /run_sse.
type RunRequest struct {
	AppName    string         `json:"app_name" validate:"required"`
	UserID     string         `json:"user_id" validate:"required"`
	SessionID  string         `json:"session_id" validate:"required"`
	NewMessage schema.Content `json:"new_message"`
}

type SessionService struct {
	sessions *session.Manager
	pipeline *pipeline.Sequential
	validate *validator.Validate
}

func ProvideSessionService(sessions *session.Manager, p *pipeline.Sequential) *SessionService {
	return &SessionService{
		sessions: sessions,
		pipeline: p,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the session lifecycle and run endpoints.
func (s *SessionService) RegisterRoutes(r chi.Router) {
	r.Route("/apps/{app}/users/{user}/sessions/{session}", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.GetSession)
		r.Delete("/", s.DeleteSession)
		r.Post("/reset", s.ResetSession)
	})
	r.Post("/run", s.Run)
	r.Post("/run_sse", s.RunSSE)
}

func sessionParams(r *http.Request) (app, user, id string) {
	return chi.URLParam(r, "app"), chi.URLParam(r, "user"), chi.URLParam(r, "session")
}

// CreateSession accepts an optional JSON object as initial state, either bare
// or under a "state" key.
func (s *SessionService) CreateSession(w http.ResponseWriter, r *http.Request) {
	app, user, id := sessionParams(r)
	if app != s.pipeline.Name() {
		writeError(w, http.StatusNotFound, "unknown app "+app)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxRequestBodySize)
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	initial := body
	if nested, ok := body["state"].(map[string]any); ok {
		initial = nested
	}

	sess, err := s.sessions.Create(app, user, id, initial)
	if errors.Is(err, session.ErrSessionExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sess.View())
}

func (s *SessionService) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(sessionParams(r))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *SessionService) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(sessionParams(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *SessionService) ResetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Reset(sessionParams(r))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// Run executes the pipeline and returns every event as one JSON array.
func (s *SessionService) Run(w http.ResponseWriter, r *http.Request) {
	sess, message, ok := s.prepareRun(w, r)
	if !ok {
		return
	}

	reporter := &agentboot.CollectingReporter{}
	if _, err := sess.Run(r.Context(), s.pipeline, message, reporter); err != nil {
		logger.Error("Pipeline run aborted", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, reporter.Events())
}

// RunSSE executes the pipeline and streams events as they happen.
func (s *SessionService) RunSSE(w http.ResponseWriter, r *http.Request) {
	sess, message, ok := s.prepareRun(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if _, err := sess.Run(r.Context(), s.pipeline, message, NewSSEReporter(w, flusher)); err != nil {
		logger.Error("Streaming pipeline run aborted", zap.String("session", sess.ID), zap.Error(err))
	}
}

func (s *SessionService) prepareRun(w http.ResponseWriter, r *http.Request) (*session.Session, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxRequestBodySize)

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, "", false
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, "", false
	}

	message := strings.TrimSpace(req.NewMessage.Text())
	if message == "" {
		writeError(w, http.StatusBadRequest, "new_message must contain text")
		return nil, "", false
	}

	sess, err := s.sessions.Get(req.AppName, req.UserID, req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, "", false
	}

	logger.Info("Run request",
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		zap.String("user", req.UserID),
		zap.String("session", req.SessionID),
		zap.Int("message_length", len(message)))
	return sess, message, true
}
