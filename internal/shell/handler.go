// Package shell serves the events pages over HTTP. Each browser session owns
// its own list and detail synchronizers; pages wait briefly for them and
// fall back to a self-refreshing "Loading..." placeholder.
package shell

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"events-portal/internal/logger"
	"events-portal/internal/models"
	"events-portal/internal/notify"
	"events-portal/internal/sse"
)

const sessionCookie = "session"

// DiagnosticsReader lists the most recent diagnostic rows.
type DiagnosticsReader interface {
	Recent(ctx context.Context, limit int) ([]models.Diagnostic, error)
}

type Options struct {
	Sessions     *Registry
	Toasts       notify.Store
	Diagnostics  DiagnosticsReader
	Changes      *sse.ChangeEmitter
	Logger       *logger.Logger
	PublicURL    string
	SuspenseWait time.Duration
	// LoadTimeout bounds how long exports wait for data.
	LoadTimeout time.Duration
}

type Handler struct {
	sessions     *Registry
	toasts       notify.Store
	diagnostics  DiagnosticsReader
	changes      *sse.ChangeEmitter
	logger       *logger.Logger
	publicURL    string
	suspenseWait time.Duration
	loadTimeout  time.Duration
	pages        map[string]*template.Template
}

func NewHandler(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	wait := opts.SuspenseWait
	if wait <= 0 {
		wait = 1500 * time.Millisecond
	}
	loadTimeout := opts.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = 10 * time.Second
	}
	return &Handler{
		sessions:     opts.Sessions,
		toasts:       opts.Toasts,
		diagnostics:  opts.Diagnostics,
		changes:      opts.Changes,
		logger:       log,
		publicURL:    opts.PublicURL,
		suspenseWait: wait,
		loadTimeout:  loadTimeout,
		pages:        parsePages(),
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.logRequests)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/diagnostics", h.ListDiagnostics)
	r.Get("/api/changes", h.StreamChanges)

	r.Group(func(r chi.Router) {
		r.Use(h.withSession)

		r.Get("/", h.ListEvents)
		r.Post("/events", h.CreateEvent)
		r.Get("/calendar.ics", h.ExportCalendar)

		r.Route("/event/{eventId}", func(r chi.Router) {
			r.Get("/", h.ShowEvent)
			r.Post("/", h.SaveEvent)
			r.Get("/edit", h.EditEvent)
			r.Get("/delete", h.ConfirmDeletePrompt)
			r.Post("/delete", h.DeleteEvent)
			r.Get("/qr.png", h.EventQRCode)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type sessionKey struct{}

func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}

		sess := h.sessions.Get(id)
		if sess.ID != id {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := notify.WithSession(r.Context(), sess.ID)
		ctx = context.WithValue(ctx, sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *Session {
	sess, _ := r.Context().Value(sessionKey{}).(*Session)
	return sess
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.LogAPI(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// waitFor runs each wait in turn, all sharing one suspense window.
func (h *Handler) waitFor(r *http.Request, waits ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.suspenseWait)
	defer cancel()
	for _, wait := range waits {
		if err := wait(ctx); err != nil {
			if ctx.Err() == nil {
				h.logger.Debug("HTTP", fmt.Sprintf("Wait ended early: %v", err))
			}
			return
		}
	}
}

// refreshURL is the current URL with wait=1 so the next render does not
// restart loading.
func refreshURL(r *http.Request) string {
	u := *r.URL
	q := u.Query()
	q.Set("wait", "1")
	u.RawQuery = q.Encode()
	return u.RequestURI()
}
