// Package form holds the editable draft behind the creation form and the
// edit modal, and the rules for submitting it.
package form

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"events-portal/internal/models"
)

// Draft is an event being typed in. Zero times mean the field is empty.
type Draft struct {
	Title       string
	Description string
	Location    string
	Image       string
	StartTime   time.Time
	EndTime     time.Time
	CreatedBy   string
	CategoryIDs []models.ID
}

// FromEvent seeds a draft with the current values of e.
func FromEvent(e models.Event) Draft {
	return Draft{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Image:       e.Image,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		CreatedBy:   e.CreatedBy.String(),
		CategoryIDs: append([]models.ID(nil), e.CategoryIDs...),
	}
}

// Toggle removes id when selected and appends it otherwise.
func (d *Draft) Toggle(id models.ID) {
	for i, existing := range d.CategoryIDs {
		if existing == id {
			d.CategoryIDs = append(d.CategoryIDs[:i:i], d.CategoryIDs[i+1:]...)
			return
		}
	}
	d.CategoryIDs = append(d.CategoryIDs, id)
}

func (d Draft) Selected(id models.ID) bool {
	for _, existing := range d.CategoryIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Validate reports every required field that is still empty.
func (d Draft) Validate() error {
	v := &models.ValidationError{}
	v.Require("title", strings.TrimSpace(d.Title) != "")
	v.Require("description", strings.TrimSpace(d.Description) != "")
	v.Require("startTime", !d.StartTime.IsZero())
	v.Require("endTime", !d.EndTime.IsZero())
	v.Require("location", strings.TrimSpace(d.Location) != "")
	v.Require("createdBy", strings.TrimSpace(d.CreatedBy) != "")
	return v.Err()
}

// Event converts the draft into the record sent to the backend.
func (d Draft) Event() models.Event {
	return models.Event{
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Image:       d.Image,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		CreatedBy:   models.ID(strings.TrimSpace(d.CreatedBy)),
		CategoryIDs: append([]models.ID{}, d.CategoryIDs...),
	}
}

// Creator adds an event to wherever the list lives.
type Creator interface {
	Create(ctx context.Context, event models.Event) (*models.Event, error)
}

// Submit validates the draft and hands it to creator. dismiss reports
// whether the form should close: it stays open only when validation fails,
// in which case err is a *models.ValidationError.
func (d Draft) Submit(ctx context.Context, creator Creator) (dismiss bool, err error) {
	if err := d.Validate(); err != nil {
		return false, err
	}
	if _, err := creator.Create(ctx, d.Event()); err != nil {
		return true, fmt.Errorf("failed to submit event: %w", err)
	}
	return true, nil
}

// ParseValues builds a draft from a posted HTML form. Times come from
// datetime-local inputs; values that do not parse are left empty.
func ParseValues(values url.Values) Draft {
	d := Draft{
		Title:       values.Get("title"),
		Description: values.Get("description"),
		Location:    values.Get("location"),
		Image:       strings.TrimSpace(values.Get("image")),
		CreatedBy:   values.Get("createdBy"),
		StartTime:   parseTime(values.Get("startTime")),
		EndTime:     parseTime(values.Get("endTime")),
	}
	for _, raw := range values["categoryIds"] {
		if raw = strings.TrimSpace(raw); raw != "" && !d.Selected(models.ID(raw)) {
			d.CategoryIDs = append(d.CategoryIDs, models.ID(raw))
		}
	}
	return d
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	t, err := models.ParseTime(value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// InputValue formats t for a datetime-local input.
func InputValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04")
}
