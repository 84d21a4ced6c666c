package shell

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-portal/internal/diagnostics"
	"events-portal/internal/events"
	"events-portal/internal/gateway"
	"events-portal/internal/logger"
	"events-portal/internal/models"
	"events-portal/internal/notify"
	"events-portal/internal/sse"
	"events-portal/internal/testbackend"
)

type harness struct {
	backend  *testbackend.Backend
	server   *httptest.Server
	client   *http.Client
	sessions *Registry
}

type harnessOption func(*Options, *events.Reporter)

func withSuspenseWait(d time.Duration) harnessOption {
	return func(o *Options, _ *events.Reporter) { o.SuspenseWait = d }
}

func withDiagnostics(db *diagnostics.DB) harnessOption {
	return func(o *Options, r *events.Reporter) {
		o.Diagnostics = db
		r.Recorder = db
	}
}

func withChanges(e *sse.ChangeEmitter) harnessOption {
	return func(o *Options, r *events.Reporter) {
		o.Changes = e
		r.Publisher = e
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	b := testbackend.Seeded()
	log := logger.Discard()
	store := notify.NewMemoryStore()

	gw := gateway.NewClient(b.URL(), &http.Client{Timeout: 2 * time.Second}, log)
	reporter := &events.Reporter{Logger: log, Notifier: &notify.SessionNotifier{Store: store, Logger: log}}
	handlerOpts := Options{
		Toasts:       store,
		Logger:       log,
		PublicURL:    "http://portal.test",
		SuspenseWait: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(&handlerOpts, reporter)
	}
	sessions := NewRegistry(time.Minute, NewSessionFactory(gw, reporter, models.MatchExact, 4), log)
	handlerOpts.Sessions = sessions

	srv := httptest.NewServer(NewHandler(handlerOpts).Routes())
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t.Cleanup(func() {
		sessions.CloseAll()
		b.ReleaseAll()
		srv.Close()
		b.Close()
	})
	return &harness{backend: b, server: srv, client: client, sessions: sessions}
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Get(h.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (h *harness) post(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.PostForm(h.server.URL+path, values)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestListPageRendersEvents(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "List of Events")
	assert.Contains(t, body, "Badminton")
	assert.Contains(t, body, "Categories: sports, games")
	assert.Contains(t, body, "Start Time: March 10, 2023 at 6:00 PM")
	assert.Contains(t, body, models.DefaultEventImage)
	assert.Equal(t, 1, h.sessions.Len())
}

func TestFilterReusesLoadedData(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/")

	_, body := h.get(t, "/?category=games")
	assert.Contains(t, body, "Board game night")
	assert.Contains(t, body, "Badminton")
	assert.NotContains(t, body, "Yoga in the park")

	_, body = h.get(t, "/?category=games&q=BOARD")
	assert.Contains(t, body, "Board game night")
	assert.NotContains(t, body, "<h2>Badminton</h2>")

	assert.Equal(t, 1, h.backend.Calls(http.MethodGet, "/events"))
}

func TestFreshMountReloads(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/")
	h.get(t, "/")
	assert.Equal(t, 2, h.backend.Calls(http.MethodGet, "/events"))
}

func TestLoadingBoundary(t *testing.T) {
	h := newHarness(t, withSuspenseWait(50*time.Millisecond))
	h.backend.Hold("/categories")

	_, body := h.get(t, "/")
	assert.Contains(t, body, "Loading...")
	assert.Contains(t, body, "wait=1")
	assert.NotContains(t, body, "Badminton")

	h.backend.Release("/categories")
	require.Eventually(t, func() bool {
		_, body = h.get(t, "/?wait=1")
		return strings.Contains(body, "Badminton")
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, h.backend.Calls(http.MethodGet, "/events"))
}

func TestListFailureShowsToast(t *testing.T) {
	h := newHarness(t)
	h.backend.Fail("/events", http.StatusInternalServerError)

	_, body := h.get(t, "/")
	assert.Contains(t, body, "Error fetching events")
	assert.Contains(t, body, "List of Events")

	_, body = h.get(t, "/?wait=1")
	assert.NotContains(t, body, "Error fetching events")
}

func validEventForm() url.Values {
	return url.Values{
		"title":       {"Chess"},
		"description": {"Blitz"},
		"location":    {"Club"},
		"startTime":   {"2023-04-01T10:00"},
		"endTime":     {"2023-04-01T12:00"},
		"createdBy":   {"Ada"},
		"categoryIds": {"2"},
	}
}

func TestCreateEventRejectsIncompleteForm(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/")

	resp, body := h.post(t, "/events", url.Values{"title": {"Chess"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, models.RequiredFieldsMessage)
	assert.Contains(t, body, `value="Chess"`)
	assert.Equal(t, 0, h.backend.Calls(http.MethodPost, "/events"))
}

func TestCreateEventAppendsWithoutReload(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/")

	resp, _ := h.post(t, "/events", validEventForm())
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?wait=1", resp.Header.Get("Location"))

	_, body := h.get(t, "/?wait=1")
	assert.Contains(t, body, "Chess")
	assert.Equal(t, 1, h.backend.Calls(http.MethodGet, "/events"))
	assert.Len(t, h.backend.Events(), 4)
}

func TestAddFormOpens(t *testing.T) {
	h := newHarness(t)
	_, body := h.get(t, "/?add=1")
	assert.Contains(t, body, "Add Event")
	assert.Contains(t, body, `name="categoryIds" value="3"`)
}

func TestDetailPage(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get(t, "/event/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>Badminton</h1>")
	assert.Contains(t, body, "Friday, March 10, 2023")
	assert.Contains(t, body, "Friday, March 10, 2023 at 7:00 PM")
	assert.Contains(t, body, `<span class="badge">sports</span>`)
	assert.Contains(t, body, `<span class="badge">games</span>`)

	require.Eventually(t, func() bool {
		_, body = h.get(t, "/event/1?wait=1")
		return strings.Contains(body, "Ignacio Doe")
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, "https://example.com/ignacio.jpg")
}

func TestDetailFailureKeepsPlaceholder(t *testing.T) {
	h := newHarness(t)

	_, body := h.get(t, "/event/99")
	assert.Contains(t, body, "Loading...")
	assert.NotContains(t, body, "http-equiv")
	assert.Contains(t, body, "Error fetching event details")
}

func TestEditFlow(t *testing.T) {
	h := newHarness(t)

	_, body := h.get(t, "/event/1/edit")
	assert.Contains(t, body, "Edit this event")
	assert.Contains(t, body, `value="Badminton"`)
	assert.Contains(t, body, `value="2023-03-10T18:00"`)

	incomplete := validEventForm()
	incomplete.Set("title", "")
	resp, body := h.post(t, "/event/1", incomplete)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, models.RequiredFieldsMessage)
	assert.Equal(t, 0, h.backend.Calls(http.MethodPut, "/events/1"))

	update := validEventForm()
	update.Set("title", "Badminton doubles")
	update["categoryIds"] = []string{"1", "2"}
	resp, _ = h.post(t, "/event/1", update)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/event/1?wait=1", resp.Header.Get("Location"))

	_, body = h.get(t, "/event/1?wait=1")
	assert.Contains(t, body, "<h1>Badminton doubles</h1>")
	assert.Contains(t, body, "Event updated successfully!")
	assert.NotContains(t, body, "Edit this event")
	assert.Equal(t, 0, h.backend.Calls(http.MethodGet, "/events"))
}

func TestDeleteFlow(t *testing.T) {
	h := newHarness(t)

	_, body := h.get(t, "/event/2/delete")
	assert.Contains(t, body, "Are you sure you want to delete this event?")

	resp, _ := h.post(t, "/event/2/delete", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Len(t, h.backend.Events(), 2)

	_, body = h.get(t, "/")
	assert.Contains(t, body, "Event deleted successfully!")
	assert.NotContains(t, body, "Board game night")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/event/2")

	resp, _ := h.post(t, "/event/2/delete", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/event/2/delete?wait=1", resp.Header.Get("Location"))
	assert.Equal(t, 0, h.backend.Calls(http.MethodDelete, "/events/2"))
}

func TestDeleteFailureStillGoesHome(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/event/2/delete")
	h.backend.Fail("/events/2", http.StatusInternalServerError)

	resp, _ := h.post(t, "/event/2/delete", nil)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := h.get(t, "/")
	assert.Contains(t, body, "Error deleting event")
	assert.Contains(t, body, "Board game night")
}

func TestEventQRCode(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get(t, "/event/1/qr.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))
}

func TestCalendarExportFollowsFilter(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/?category=relaxation")

	resp, body := h.get(t, "/calendar.ics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Yoga in the park")
	assert.Contains(t, body, "CATEGORIES:relaxation,sports")
	assert.NotContains(t, body, "Badminton")
}

func TestDiagnosticsEndpoint(t *testing.T) {
	db, err := diagnostics.Open("file:shell_diagnostics?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()
	store := &diagnostics.DB{Bun: db}
	require.NoError(t, store.Migrate(context.Background()))

	h := newHarness(t, withDiagnostics(store))
	h.backend.Fail("/events", http.StatusServiceUnavailable)
	h.get(t, "/")

	resp, body := h.get(t, "/api/diagnostics?limit=5")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                `json:"success"`
		Data    []models.Diagnostic `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.True(t, payload.Success)
	require.NotEmpty(t, payload.Data)
	assert.Equal(t, "list events", payload.Data[0].Operation)
	assert.Equal(t, http.StatusServiceUnavailable, payload.Data[0].StatusCode)

	resp, _ = h.get(t, "/api/diagnostics?limit=zero")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDiagnosticsUnavailable(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.get(t, "/api/diagnostics")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/")

	resp, body := h.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	_, body = h.get(t, "/metrics")
	assert.Contains(t, body, "events_portal_gateway_requests_total")
}

func TestChangeStreamDeliversCreatedEvent(t *testing.T) {
	h := newHarness(t, withChanges(sse.NewChangeEmitter()))
	h.get(t, "/")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.server.URL+"/api/changes", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	created, _ := h.post(t, "/events", validEventForm())
	assert.Equal(t, http.StatusSeeOther, created.StatusCode)

	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, "event: created", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "data: "))

	var change models.EventChange
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &change))
	assert.Equal(t, models.ChangeCreated, change.Kind)
	require.NotNil(t, change.Event)
	assert.Equal(t, "Chess", change.Event.Title)
}

func TestChangeStreamUnavailable(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.get(t, "/api/changes")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
