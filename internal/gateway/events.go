package gateway

import (
	"context"
	"net/http"

	"events-portal/internal/models"
)

func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := c.do(ctx, "list events", http.MethodGet, c.endpoint("events"), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id models.ID) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, "get event", http.MethodGet, c.endpoint("events", id.String()), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent posts the event without an id; the backend assigns one.
func (c *Client) CreateEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	event.ID = ""
	var created models.Event
	if err := c.do(ctx, "create event", http.MethodPost, c.endpoint("events"), event, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent replaces the whole event stored under id.
func (c *Client) UpdateEvent(ctx context.Context, id models.ID, event models.Event) (*models.Event, error) {
	event.ID = id
	var updated models.Event
	if err := c.do(ctx, "update event", http.MethodPut, c.endpoint("events", id.String()), event, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id models.ID) error {
	return c.do(ctx, "delete event", http.MethodDelete, c.endpoint("events", id.String()), nil, nil)
}
