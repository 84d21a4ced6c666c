package shell

import (
	"errors"
	"fmt"
	"net/http"

	"events-portal/internal/events/form"
	"events-portal/internal/events/listing"
	"events-portal/internal/models"
)

type listPage struct {
	Search     string
	Category   string
	Rows       []listing.Row
	Categories []models.Category
	FormOpen   bool
	Draft      form.Draft
	Alert      string
}

// freshMount reports whether "/" was requested without any view state, the
// way a full page load would arrive.
func freshMount(r *http.Request) bool {
	q := r.URL.Query()
	return !q.Has("wait") && !q.Has("q") && !q.Has("category") && !q.Has("add")
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	q := r.URL.Query()

	sess.List.SetFilter(models.NewFilter(q.Get("q"), q.Get("category")))
	view := sess.List.Snapshot()
	if freshMount(r) || (view.EventsState == listing.Idle && view.CategoriesState == listing.Idle) {
		sess.List.Load(r.Context())
	}

	h.waitFor(r, sess.List.Wait)
	view = sess.List.Snapshot()
	if !view.Ready {
		h.renderLoading(w, r, refreshURL(r))
		return
	}

	h.renderList(w, r, http.StatusOK, view, q.Get("add") == "1", form.Draft{}, "")
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, status int, view listing.View, formOpen bool, draft form.Draft, alert string) {
	h.render(w, r, status, "list.html", page{
		Title: "List of Events",
		Body: listPage{
			Search:     view.Filter.Search,
			Category:   view.Filter.Category,
			Rows:       view.Rows,
			Categories: view.Categories,
			FormOpen:   formOpen,
			Draft:      draft,
			Alert:      alert,
		},
	})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	draft := form.ParseValues(r.PostForm)
	dismiss, err := draft.Submit(r.Context(), sess.List)
	if !dismiss {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			h.logger.Info("FORM", fmt.Sprintf("Rejected event draft: %v", verr))
		}
		h.renderList(w, r, http.StatusUnprocessableEntity, sess.List.Snapshot(), true, draft, models.RequiredFieldsMessage)
		return
	}
	if err != nil {
		h.logger.Warn("FORM", err.Error())
	}

	http.Redirect(w, r, "/?wait=1", http.StatusSeeOther)
}
