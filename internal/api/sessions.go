package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/cache"
	"github.com/patrickwarner/adreward/internal/middleware"
	"github.com/patrickwarner/adreward/internal/models"
	"github.com/patrickwarner/adreward/internal/session"
)

type startSessionRequest struct {
	UserID    string `json:"user_id"`
	ContentID string `json:"content_id,omitempty"`
	VideoURL  string `json:"video_url,omitempty"`
	Audience  string `json:"audience,omitempty"`
}

type nextVideoRequest struct {
	VideoURL string `json:"video_url"`
}

// sessionStatus maps a session error onto an HTTP status.
func sessionStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrMissingUser), errors.Is(err, models.ErrInvalidVideoURL):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotExternal), errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// StartSessionHandler handles POST /sessions.
func (s *Server) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "StartSessionHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/sessions"),
		))
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)
	start := time.Now()
	const endpoint = "sessions"
	const method = "POST"

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.observe(endpoint, method, http.StatusBadRequest, start)
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ContentID == "" && req.VideoURL == "" {
		s.observe(endpoint, method, http.StatusBadRequest, start)
		http.Error(w, "content_id or video_url required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("user_id", req.UserID))

	if req.UserID != "" && s.Limiter != nil && !s.Limiter.Allow(req.UserID) {
		logger.Warn("session start rate limited", zap.String("user_id", req.UserID))
		s.observe(endpoint, method, http.StatusTooManyRequests, start)
		http.Error(w, "too many session starts", http.StatusTooManyRequests)
		return
	}

	view, err := s.Sessions.Start(ctx, session.StartRequest{
		UserID:    req.UserID,
		ContentID: req.ContentID,
		VideoURL:  req.VideoURL,
		Audience:  cache.ParseAudience(req.Audience),
	})
	if err != nil {
		status := sessionStatus(err)
		logger.Info("session start refused", zap.String("user_id", req.UserID), zap.Error(err))
		s.observe(endpoint, method, status, start)
		http.Error(w, err.Error(), status)
		return
	}
	span.SetAttributes(attribute.String("session_id", view.ID))

	s.observe(endpoint, method, http.StatusCreated, start)
	writeJSON(w, http.StatusCreated, view)
}

// GetSessionHandler handles GET /sessions/{id}.
func (s *Server) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "session"
	const method = "GET"

	view, err := s.Sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		status := sessionStatus(err)
		s.observe(endpoint, method, status, start)
		http.Error(w, err.Error(), status)
		return
	}
	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, view)
}

// NextVideoHandler handles POST /sessions/{id}/next.
func (s *Server) NextVideoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "NextVideoHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/sessions/{id}/next"),
		))
	defer span.End()

	start := time.Now()
	const endpoint = "session_next"
	const method = "POST"

	var req nextVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoURL == "" {
		s.observe(endpoint, method, http.StatusBadRequest, start)
		http.Error(w, "video_url required", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("session_id", id))
	view, err := s.Sessions.Next(ctx, id, req.VideoURL)
	if err != nil {
		status := sessionStatus(err)
		s.observe(endpoint, method, status, start)
		http.Error(w, err.Error(), status)
		return
	}
	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, view)
}

// CancelSessionHandler handles DELETE /sessions/{id}.
func (s *Server) CancelSessionHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "session"
	const method = "DELETE"

	if err := s.Sessions.Cancel(mux.Vars(r)["id"]); err != nil {
		status := sessionStatus(err)
		s.observe(endpoint, method, status, start)
		http.Error(w, err.Error(), status)
		return
	}
	s.observe(endpoint, method, http.StatusNoContent, start)
	w.WriteHeader(http.StatusNoContent)
}
