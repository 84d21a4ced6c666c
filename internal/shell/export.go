package shell

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/skip2/go-qrcode"

	"events-portal/internal/events/listing"
	"events-portal/internal/models"
	"events-portal/internal/utils"
)

const calendarProductID = "-//events-portal//EN"

// EventQRCode encodes the public URL of the event page as a PNG.
func (h *Handler) EventQRCode(w http.ResponseWriter, r *http.Request) {
	target := h.publicURL + "/event/" + eventID(r).String()
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		h.logger.Error("HTTP", fmt.Sprintf("Failed to encode QR code: %v", err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// ExportCalendar writes the session's filtered list as an iCalendar file.
func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	view := sess.List.Snapshot()
	if view.EventsState == listing.Idle {
		sess.List.Load(r.Context())
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.loadTimeout)
	defer cancel()
	if err := sess.List.Wait(ctx); err != nil {
		http.Error(w, "Events are still loading", http.StatusServiceUnavailable)
		return
	}

	view = sess.List.Snapshot()
	if view.EventsState != listing.Loaded {
		http.Error(w, "Events could not be loaded", http.StatusBadGateway)
		return
	}

	cal := buildCalendar(h.publicURL, view.Rows, time.Now().UTC())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		h.logger.Error("HTTP", fmt.Sprintf("Failed to encode calendar: %v", err))
	}
}

func buildCalendar(publicURL string, rows []listing.Row, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)

	for _, row := range rows {
		e := row.Event
		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, "event-"+e.ID.String()+"@events-portal")
		ve.Props.SetText(ical.PropSummary, e.Title)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		ve.Props.SetDateTime(ical.PropDateTimeStart, e.StartTime.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, e.EndTime.UTC())
		if e.Description != "" {
			ve.Props.SetText(ical.PropDescription, e.Description)
		}
		if e.Location != "" {
			ve.Props.SetText(ical.PropLocation, e.Location)
		}
		if len(row.CategoryNames) > 0 {
			categories := ical.NewProp(ical.PropCategories)
			categories.Value = categoryList(row.CategoryNames)
			ve.Props.Set(categories)
		}
		ve.Props.SetText(ical.PropURL, publicURL+"/event/"+e.ID.String())
		cal.Children = append(cal.Children, ve)
	}
	return cal
}

// categoryList joins names as a CATEGORIES value. Commas separate values,
// so commas inside a name are escaped.
func categoryList(names []string) string {
	escaped := make([]string, 0, len(names))
	for _, name := range names {
		escaped = append(escaped, strings.ReplaceAll(name, ",", `\,`))
	}
	return strings.Join(escaped, ",")
}

// ListDiagnostics returns the most recent diagnostic rows, newest first.
func (h *Handler) ListDiagnostics(w http.ResponseWriter, r *http.Request) {
	if h.diagnostics == nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Diagnostics unavailable", "no diagnostics store configured"))
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid limit", fmt.Sprintf("limit must be a positive integer, got %q", raw)))
			return
		}
		limit = n
	}

	rows, err := h.diagnostics.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("DIAGNOSTICS", fmt.Sprintf("Failed to read diagnostics: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to read diagnostics", err.Error()))
		return
	}
	if rows == nil {
		rows = []models.Diagnostic{}
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Recent diagnostics", rows))
}
