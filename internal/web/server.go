// Package web serves the promptpad page. Every button is a form post to
// /intent that dispatches one controller intent and redirects back to the
// page, so the page works without scripts.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dpshade/promptpad/internal/controller"
	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/logger"
)

//go:embed templates/page.html
var pageHTML string

//go:embed static
var staticFS embed.FS

// Form actions accepted by POST /intent
const (
	ActionNew    = "new"
	ActionSave   = "save"
	ActionSelect = "select"
	ActionRemove = "remove"
	ActionCopy   = "copy"
	ActionSend   = "send"
	ActionEdit   = "edit"
)

// Server serves the browser page and turns its form posts into intents
type Server struct {
	ctl          *controller.Controller
	addr         string
	tmpl         *template.Template
	log          *logger.Logger
	errorHandler *apperrors.HTTPErrorHandler
	server       *http.Server
}

type pageModel struct {
	View controller.View
}

// NewServer creates the page server over a controller
func NewServer(ctl *controller.Controller, addr string, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("web")

	tmpl, err := template.New("page").Parse(pageHTML)
	if err != nil {
		return nil, fmt.Errorf("web: parse page template: %w", err)
	}

	return &Server{
		ctl:          ctl,
		addr:         addr,
		tmpl:         tmpl,
		log:          log,
		errorHandler: apperrors.NewHTTPErrorHandler(false, log),
	}, nil
}

// Handler returns the page routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("POST /intent", s.handleIntent)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /static/", s.handleStatic())
	return s.withLogging(withSecurityHeaders(mux))
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.log.Info("page server starting", zap.String("addr", "http://"+s.addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var view controller.View
	if q, ok := r.URL.Query()["q"]; ok {
		view = s.ctl.Dispatch(controller.Search{Query: strings.Join(q, " ")}).View
	} else {
		view = s.ctl.View()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.tmpl.Execute(w, pageModel{View: view}); err != nil {
		s.log.Error("render page", zap.Error(err))
		return
	}
	s.ctl.DismissFlash()
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.errorHandler.WriteHTTPError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "Invalid form"))
		return
	}

	action := r.PostForm.Get("action")
	title := r.PostForm.Get("title")
	content := r.PostForm.Get("content")
	_, hasDraft := r.PostForm["content"]

	// Keep the unsaved draft across the redirect
	if hasDraft && action != ActionNew && action != ActionSave && action != ActionEdit {
		s.ctl.Dispatch(controller.Edit{Title: title, Content: content})
	}

	var res controller.Result
	switch action {
	case ActionNew:
		res = s.ctl.Dispatch(controller.New{})
	case ActionSave:
		res = s.ctl.Dispatch(controller.Save{Title: title, Content: content})
	case ActionEdit:
		res = s.ctl.Dispatch(controller.Edit{Title: title, Content: content})
	case ActionCopy:
		res = s.ctl.Dispatch(controller.Copy{Content: content})
	case ActionSend:
		if !hasDraft {
			content = s.ctl.View().Content
		}
		res = s.ctl.RequestCompletion(r.Context(), content)
	case ActionSelect, ActionRemove:
		id, err := strconv.ParseInt(r.PostForm.Get("id"), 10, 64)
		if err != nil {
			s.errorHandler.WriteHTTPError(w, apperrors.InvalidInputError("Invalid prompt id"))
			return
		}
		if action == ActionSelect {
			res = s.ctl.Dispatch(controller.Select{ID: id})
		} else {
			res = s.ctl.Dispatch(controller.Remove{ID: id})
		}
	default:
		s.errorHandler.WriteHTTPError(w, apperrors.InvalidInputError(fmt.Sprintf("Unknown action %q", action)))
		return
	}

	if res.Err != nil {
		s.log.Debug("intent finished with error", zap.String("action", action), zap.Error(res.Err))
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ctl.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "promptpad-web",
	})
}

func (s *Server) handleStatic() http.Handler {
	files := http.FileServer(http.FS(staticFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		files.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; base-uri 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
