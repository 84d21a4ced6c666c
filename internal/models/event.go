package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultEventImage is shown for events that carry no image of their own.
const DefaultEventImage = "https://images.pexels.com/photos/158827/field-corn-air-frisch-158827.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1"

type Event struct {
	ID          ID        `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Location    string    `json:"location"`
	CreatedBy   ID        `json:"createdBy"`
	CategoryIDs []ID      `json:"categoryIds"`
}

// ImageOrDefault returns the event image, falling back to DefaultEventImage.
func (e Event) ImageOrDefault() string {
	if strings.TrimSpace(e.Image) == "" {
		return DefaultEventImage
	}
	return e.Image
}

// Clone returns a copy that shares no slices with e.
func (e Event) Clone() Event {
	out := e
	if e.CategoryIDs != nil {
		out.CategoryIDs = append([]ID(nil), e.CategoryIDs...)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts the timestamp shapes the backend and HTML date inputs
// produce. Zone-less values are read as UTC.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", value)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	var raw struct {
		alias
		StartTime *string `json:"startTime"`
		EndTime   *string `json:"endTime"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event(raw.alias)

	var err error
	if raw.StartTime != nil {
		if e.StartTime, err = ParseTime(*raw.StartTime); err != nil {
			return fmt.Errorf("startTime: %w", err)
		}
	}
	if raw.EndTime != nil {
		if e.EndTime, err = ParseTime(*raw.EndTime); err != nil {
			return fmt.Errorf("endTime: %w", err)
		}
	}
	return nil
}
