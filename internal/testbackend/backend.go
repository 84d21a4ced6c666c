// Package testbackend serves an in-memory copy of the events REST API for
// tests. It supports failure injection and holding individual requests open
// so that tests can drive asynchronous orderings deterministically.
package testbackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"events-portal/internal/models"
)

type Backend struct {
	Server *httptest.Server

	mu         sync.Mutex
	events     []models.Event
	categories []models.Category
	users      []models.User
	nextID     int
	failures   map[string]int
	gates      map[string]chan struct{}
	calls      map[string]int
	raw        map[string]string
}

func New() *Backend {
	b := &Backend{
		nextID:   1000,
		failures: make(map[string]int),
		gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
		raw:      make(map[string]string),
	}

	r := chi.NewRouter()
	r.Use(b.intercept)
	r.Get("/events", b.listEvents)
	r.Post("/events", b.createEvent)
	r.Get("/events/{id}", b.getEvent)
	r.Put("/events/{id}", b.updateEvent)
	r.Delete("/events/{id}", b.deleteEvent)
	r.Get("/categories", b.listCategories)
	r.Get("/categories/{id}", b.getCategory)
	r.Get("/users/{id}", b.getUser)

	b.Server = httptest.NewServer(r)
	return b
}

// Seeded returns a backend holding the fixture data used across tests.
func Seeded() *Backend {
	b := New()
	b.SetCategories(
		models.Category{ID: "1", Name: "sports"},
		models.Category{ID: "2", Name: "games"},
		models.Category{ID: "3", Name: "relaxation"},
	)
	b.SetUsers(
		models.User{ID: "1", Name: "Ignacio Doe", Image: "https://example.com/ignacio.jpg"},
		models.User{ID: "2", Name: "Jane Bennett"},
	)
	b.SetEvents(
		models.Event{ID: "1", Title: "Badminton", Description: "Playing badminton", Location: "Sports hall", CreatedBy: "1", CategoryIDs: []models.ID{"1", "2"}, StartTime: mustTime("2023-03-10T18:00:00Z"), EndTime: mustTime("2023-03-10T19:00:00Z")},
		models.Event{ID: "2", Title: "Board game night", Description: "Catan and friends", Location: "Cafe", CreatedBy: "2", CategoryIDs: []models.ID{"2"}, StartTime: mustTime("2023-03-12T19:00:00Z"), EndTime: mustTime("2023-03-12T23:00:00Z")},
		models.Event{ID: "3", Title: "Yoga in the park", Description: "Morning stretch", Location: "Park", CreatedBy: "1", CategoryIDs: []models.ID{"3", "1"}, StartTime: mustTime("2023-03-15T08:00:00Z"), EndTime: mustTime("2023-03-15T09:00:00Z")},
	)
	return b
}

func mustTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func (b *Backend) Close() {
	b.ReleaseAll()
	b.Server.Close()
}

func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) SetEvents(events ...models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append([]models.Event(nil), events...)
}

func (b *Backend) SetCategories(categories ...models.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.categories = append([]models.Category(nil), categories...)
}

func (b *Backend) SetUsers(users ...models.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append([]models.User(nil), users...)
}

func (b *Backend) Events() []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Event(nil), b.events...)
}

// Fail makes every request to path answer with status until cleared.
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = status
}

func (b *Backend) ClearFailure(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, path)
}

// RawBody makes path answer 200 with body verbatim.
func (b *Backend) RawBody(path, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.raw[path] = body
}

// Hold blocks requests to path until Release is called.
func (b *Backend) Hold(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.gates[path]; !ok {
		b.gates[path] = make(chan struct{})
	}
}

func (b *Backend) Release(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gate, ok := b.gates[path]; ok {
		close(gate)
		delete(b.gates, path)
	}
}

func (b *Backend) ReleaseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for path, gate := range b.gates {
		close(gate)
		delete(b.gates, path)
	}
}

// Calls reports how many requests reached "METHOD path".
func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		b.mu.Lock()
		b.calls[r.Method+" "+path]++
		gate := b.gates[path]
		status := b.failures[path]
		raw, hasRaw := b.raw[path]
		b.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		if hasRaw {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(raw))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (b *Backend) listEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Events())
}

func (b *Backend) getEvent(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e.ID == id {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{})
}

func (b *Backend) createEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.nextID++
	event.ID = models.ID(strconv.Itoa(b.nextID))
	b.events = append(b.events, event)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, event)
}

func (b *Backend) updateEvent(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	event.ID = id
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		if b.events[i].ID == id {
			b.events[i] = event
			writeJSON(w, http.StatusOK, event)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{})
}

func (b *Backend) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		if b.events[i].ID == id {
			b.events = append(b.events[:i], b.events[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{})
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	categories := append([]models.Category(nil), b.categories...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, categories)
}

func (b *Backend) getCategory(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.categories {
		if c.ID == id {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{})
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.ID == id {
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{})
}
