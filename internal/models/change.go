package models

import "time"

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// EventChange is published after a mutation succeeds on the backend.
type EventChange struct {
	Kind       ChangeKind `json:"kind"`
	EventID    ID         `json:"eventId"`
	Event      *Event     `json:"event,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

func NewEventChange(kind ChangeKind, id ID, event *Event) EventChange {
	return EventChange{
		Kind:       kind,
		EventID:    id,
		Event:      event,
		OccurredAt: time.Now().UTC(),
	}
}
