package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-portal/internal/gateway"
	"events-portal/internal/models"
	"events-portal/internal/testbackend"
)

func newClient(t *testing.T, b *testbackend.Backend) *gateway.Client {
	t.Helper()
	return gateway.NewClient(b.URL(), &http.Client{Timeout: 2 * time.Second}, nil)
}

func TestListEventsAndCategories(t *testing.T) {
	b := testbackend.Seeded()
	defer b.Close()
	c := newClient(t, b)

	events, err := c.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Badminton", events[0].Title)
	assert.Equal(t, []models.ID{"1", "2"}, events[0].CategoryIDs)
	assert.Equal(t, 18, events[0].StartTime.Hour())

	categories, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 3)
}

func TestGetByID(t *testing.T) {
	b := testbackend.Seeded()
	defer b.Close()
	c := newClient(t, b)
	ctx := context.Background()

	event, err := c.GetEvent(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Board game night", event.Title)

	category, err := c.GetCategory(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "relaxation", category.Name)

	user, err := c.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Ignacio Doe", user.Name)
}

func TestCreateUpdateDeleteRoundTrip(t *testing.T) {
	b := testbackend.Seeded()
	defer b.Close()
	c := newClient(t, b)
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	created, err := c.CreateEvent(ctx, models.Event{
		ID:          "should-be-dropped",
		Title:       "T",
		Description: "D",
		StartTime:   start,
		EndTime:     end,
		Location:    "L",
		CreatedBy:   "U",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, models.ID("should-be-dropped"), created.ID)

	events, err := c.ListEvents(ctx)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, created.ID, last.ID)
	assert.Equal(t, "T", last.Title)
	assert.Equal(t, "D", last.Description)
	assert.True(t, start.Equal(last.StartTime))
	assert.True(t, end.Equal(last.EndTime))
	assert.Equal(t, "L", last.Location)
	assert.Equal(t, models.ID("U"), last.CreatedBy)

	last.Title = "T2"
	updated, err := c.UpdateEvent(ctx, created.ID, last)
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)

	require.NoError(t, c.DeleteEvent(ctx, created.ID))
	_, err = c.GetEvent(ctx, created.ID)
	assert.True(t, gateway.IsNotFound(err))
}

func TestNonSuccessStatusIsNetworkError(t *testing.T) {
	b := testbackend.Seeded()
	defer b.Close()
	c := newClient(t, b)

	b.Fail("/events", http.StatusInternalServerError)
	_, err := c.ListEvents(context.Background())

	var nerr *gateway.NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, http.StatusInternalServerError, nerr.StatusCode)
	assert.Equal(t, http.MethodGet, nerr.Method)
	assert.ErrorIs(t, err, gateway.ErrUnexpectedStatus)
}

func TestDeleteMissingEventFails(t *testing.T) {
	b := testbackend.Seeded()
	defer b.Close()
	c := newClient(t, b)

	err := c.DeleteEvent(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, gateway.IsNotFound(err))
}

func TestMalformedBodyIsNetworkError(t *testing.T) {
	b := testbackend.Seeded()
	defer b.Close()
	c := newClient(t, b)

	b.RawBody("/events/1", "{not json")
	_, err := c.GetEvent(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrMalformedBody)
	assert.Equal(t, http.StatusOK, gateway.StatusCode(err))
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := gateway.NewClient(url, nil, nil)
	_, err := c.ListCategories(context.Background())

	var nerr *gateway.NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.Zero(t, nerr.StatusCode)
}

func TestContextCancellationAbortsRequest(t *testing.T) {
	b := testbackend.Seeded()
	defer b.Close()
	c := newClient(t, b)

	b.Hold("/users/1")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetUser(ctx, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
