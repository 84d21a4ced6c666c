package shell

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"events-portal/internal/events/detail"
	"events-portal/internal/events/form"
	"events-portal/internal/models"
)

type detailPage struct {
	View  detail.View
	Alert string
}

func eventID(r *http.Request) models.ID {
	return models.ID(chi.URLParam(r, "eventId"))
}

// openEvent starts loading id unless the session already shows it. force
// restarts the load regardless, as a full page load would.
func (h *Handler) openEvent(r *http.Request, sess *Session, id models.ID, force bool) detail.View {
	view := sess.Detail.Snapshot()
	if force || view.EventID != id || view.Status == detail.Idle {
		sess.Detail.Open(r.Context(), id)
	}
	// The creator panel is best effort: it gets whatever is left of the
	// window once the event is ready.
	h.waitFor(r, sess.Detail.Wait, sess.Detail.WaitCreator)
	return sess.Detail.Snapshot()
}

// renderDetail renders view, or the loading placeholder when it is not ready.
// A failed load keeps the placeholder without refreshing.
func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, status int, view detail.View, alert string) {
	switch view.Status {
	case detail.Ready:
		title := "Event"
		if view.Event != nil {
			title = view.Event.Title
		}
		h.render(w, r, status, "detail.html", page{Title: title, Body: detailPage{View: view, Alert: alert}})
	case detail.Failed:
		h.renderLoading(w, r, "")
	default:
		h.renderLoading(w, r, refreshURL(r))
	}
}

func (h *Handler) ShowEvent(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := eventID(r)

	view := h.openEvent(r, sess, id, !r.URL.Query().Has("wait"))
	if view.Status == detail.Ready {
		sess.Detail.CancelEdit()
		sess.Detail.CancelDelete()
		view = sess.Detail.Snapshot()
	}
	h.renderDetail(w, r, http.StatusOK, view, "")
}

func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	view := h.openEvent(r, sess, eventID(r), false)
	if view.Status == detail.Ready && !view.Editing {
		if err := sess.Detail.BeginEdit(); err == nil {
			view = sess.Detail.Snapshot()
		}
	}
	h.renderDetail(w, r, http.StatusOK, view, "")
}

func (h *Handler) SaveEvent(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := eventID(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	view := h.openEvent(r, sess, id, false)
	if view.Status != detail.Ready {
		h.renderDetail(w, r, http.StatusOK, view, "")
		return
	}

	draft := form.ParseValues(r.PostForm)
	_, err := sess.Detail.Save(r.Context(), draft)
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderDetail(w, r, http.StatusUnprocessableEntity, sess.Detail.Snapshot(), models.RequiredFieldsMessage)
	case err != nil:
		http.Redirect(w, r, "/event/"+id.String()+"/edit?wait=1", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/event/"+id.String()+"?wait=1", http.StatusSeeOther)
	}
}

func (h *Handler) ConfirmDeletePrompt(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	view := h.openEvent(r, sess, eventID(r), false)
	if view.Status == detail.Ready {
		if err := sess.Detail.RequestDelete(); err == nil {
			view = sess.Detail.Snapshot()
		}
	}
	h.renderDetail(w, r, http.StatusOK, view, "")
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := eventID(r)

	if sess.Detail.Snapshot().EventID != id {
		http.Redirect(w, r, "/event/"+id.String()+"/delete", http.StatusSeeOther)
		return
	}

	next, err := sess.Detail.ConfirmDelete(r.Context())
	if errors.Is(err, detail.ErrDeleteNotConfirmed) {
		http.Redirect(w, r, "/event/"+id.String()+"/delete?wait=1", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}
