// Package relay is the small HTTP service that accepts a prompt from the
// browser page, forwards it to the hosted model and returns the completion.
//
// Routes:
//   - GET  /           plain-text liveness string
//   - GET  /health     {"status":"ok"}
//   - POST /send-to-ia {"prompt": string} -> {"response": string}
//
// A missing or blank prompt is a 400, an upstream failure a 500; both carry
// {"error": string}. Nothing is persisted.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dpshade/promptpad/internal/completion"
	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/logger"
)

// LivenessText is returned by GET /
const LivenessText = "promptpad relay is running"

const maxBodyBytes = 1 << 20

// Server provides the relay endpoints
type Server struct {
	completer    Completer
	addr         string
	log          *logger.Logger
	errorHandler *apperrors.HTTPErrorHandler
	server       *http.Server
}

// NewServer creates a new relay server instance
func NewServer(completer Completer, addr string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("relay")
	return &Server{
		completer:    completer,
		addr:         addr,
		log:          log,
		errorHandler: apperrors.NewHTTPErrorHandler(false, log),
	}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.withMiddleware(s.handleRoot))
	mux.HandleFunc("/health", s.withMiddleware(s.handleHealth))
	mux.HandleFunc("/send-to-ia", s.withMiddleware(s.handleSendToIA))
	return mux
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info("relay starting", zap.String("addr", "http://"+s.addr))
	s.log.Info("endpoint available", zap.String("url", fmt.Sprintf("http://%s/send-to-ia", s.addr)))

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// withMiddleware applies middleware to HTTP handlers
func (s *Server) withMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return s.loggingMiddleware(
		s.corsMiddleware(
			s.contentTypeMiddleware(
				s.errorMiddleware(handler),
			),
		),
	)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)))
	}
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// contentTypeMiddleware sets default content type
func (s *Server) contentTypeMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

// errorMiddleware handles panics
func (s *Server) errorMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic in handler", zap.Any("panic", err))
				s.errorHandler.WriteHTTPError(w, apperrors.InternalError("Internal server error"))
			}
		}()
		next(w, r)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.errorHandler.WriteHTTPError(w, apperrors.NotFoundError(r.URL.Path))
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.errorHandler.WriteHTTPError(w, apperrors.NewAppError(apperrors.ErrCodeMethodNotAllowed, "Method not allowed"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(LivenessText))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "promptpad-relay",
	})
}

func (s *Server) handleSendToIA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorHandler.WriteHTTPError(w, apperrors.NewAppError(apperrors.ErrCodeMethodNotAllowed, "Method not allowed"))
		return
	}

	var req struct {
		Prompt *string `json:"prompt"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.errorHandler.WriteHTTPError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "Invalid request body"))
		return
	}
	if req.Prompt == nil || strings.TrimSpace(*req.Prompt) == "" {
		s.errorHandler.WriteHTTPError(w, apperrors.ValidationError("Prompt is required"))
		return
	}

	text, err := s.completer.Complete(r.Context(), *req.Prompt)
	if err != nil {
		s.errorHandler.WriteHTTPError(w, apperrors.Wrap(err, apperrors.ErrCodeRemoteFailure, "Failed to get a response from the AI"))
		return
	}

	json.NewEncoder(w).Encode(completion.Response{Response: text})
}
