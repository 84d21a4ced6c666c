package shell

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"events-portal/internal/events/form"
	"events-portal/internal/models"
	"events-portal/internal/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	listTimeLayout   = "January 2, 2006 at 3:04 PM"
	detailDateLayout = "Monday, January 2, 2006"
	detailTimeLayout = "Monday, January 2, 2006 at 3:04 PM"
)

var templateFuncs = template.FuncMap{
	"listTime":   func(t time.Time) string { return t.Format(listTimeLayout) },
	"detailDate": func(t time.Time) string { return t.Format(detailDateLayout) },
	"detailTime": func(t time.Time) string { return t.Format(detailTimeLayout) },
	"inputTime":  form.InputValue,
}

func parsePages() map[string]*template.Template {
	base := template.Must(template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html"))

	pages := make(map[string]*template.Template)
	for _, name := range []string{"list.html", "detail.html", "loading.html"} {
		pages[name] = template.Must(template.Must(base.Clone()).ParseFS(templateFS, "templates/"+name))
	}
	return pages
}

type page struct {
	Title   string
	Refresh string
	Toasts  []models.Toast
	Body    any
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	tmpl, ok := h.pages[name]
	if !ok {
		h.logger.Error("HTTP", fmt.Sprintf("Unknown page template %s", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p.Toasts = h.drainToasts(r)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", p); err != nil {
		h.logger.Error("HTTP", fmt.Sprintf("Failed to render %s: %v", name, err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) drainToasts(r *http.Request) []models.Toast {
	if h.toasts == nil {
		return nil
	}
	sessionID := notify.SessionFrom(r.Context())
	if sessionID == "" {
		return nil
	}
	toasts, err := h.toasts.Drain(r.Context(), sessionID)
	if err != nil {
		h.logger.Warn("TOAST", fmt.Sprintf("Failed to drain toasts: %v", err))
		return nil
	}
	return toasts
}

// renderLoading shows the placeholder. An empty refresh leaves it in place.
func (h *Handler) renderLoading(w http.ResponseWriter, r *http.Request, refresh string) {
	h.render(w, r, http.StatusOK, "loading.html", page{Title: "Loading...", Refresh: refresh})
}
