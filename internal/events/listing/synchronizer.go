package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"events-portal/internal/events"
	"events-portal/internal/models"
)

// ErrNotLoaded is returned by Wait before the first Load.
var ErrNotLoaded = errors.New("list has not been loaded")

type Gateway interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateEvent(ctx context.Context, event models.Event) (*models.Event, error)
}

type SlotState int

const (
	Idle SlotState = iota
	Loading
	Loaded
	Failed
)

func (s SlotState) Settled() bool {
	return s == Loaded || s == Failed
}

func (s SlotState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// View is an immutable snapshot of the list for rendering.
type View struct {
	Ready           bool
	EventsState     SlotState
	CategoriesState SlotState
	Filter          models.Filter
	Mode            models.MatchMode
	Rows            []Row
	Categories      []models.Category
}

// Synchronizer loads events and categories independently and keeps the
// filtered list derived from them. Each fetch writes only its own slot, and
// only while its generation is current.
type Synchronizer struct {
	gateway  Gateway
	reporter *events.Reporter
	mode     models.MatchMode

	mu              sync.Mutex
	generation      uint64
	cancel          context.CancelFunc
	settled         chan struct{}
	settledClosed   bool
	events          []models.Event
	eventsState     SlotState
	// created holds events added while the events slot was loading; the
	// fetched list may predate them.
	created         []models.Event
	categories      []models.Category
	categoriesState SlotState
	filter          models.Filter
	rows            []Row
}

func New(gateway Gateway, reporter *events.Reporter, mode models.MatchMode) *Synchronizer {
	if mode == "" {
		mode = models.MatchExact
	}
	return &Synchronizer{
		gateway:  gateway,
		reporter: reporter,
		mode:     mode,
		filter:   models.NewFilter("", ""),
	}
}

// Load starts fetching events and categories in parallel and returns
// immediately. A previous load still in flight is cancelled and its results
// are discarded.
func (s *Synchronizer) Load(ctx context.Context) {
	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.supersedeLocked()
	s.cancel = cancel
	gen := s.generation
	s.eventsState = Loading
	s.categoriesState = Loading
	s.settled = make(chan struct{})
	s.settledClosed = false
	s.mu.Unlock()

	go s.fetchEvents(loadCtx, gen)
	go s.fetchCategories(loadCtx, gen)
}

// Close cancels any load in flight. Late results are dropped.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
}

func (s *Synchronizer) supersedeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.closeSettledLocked()
}

func (s *Synchronizer) closeSettledLocked() {
	if s.settled != nil && !s.settledClosed {
		close(s.settled)
		s.settledClosed = true
	}
}

func (s *Synchronizer) fetchEvents(ctx context.Context, gen uint64) {
	list, err := s.gateway.ListEvents(ctx)
	if err != nil && s.isCurrent(gen) {
		s.reporter.Failure(ctx, "LIST", "list events", err, "Error fetching events")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if err != nil {
		s.eventsState = Failed
	} else {
		s.events = mergeCreated(list, s.created)
		s.eventsState = Loaded
	}
	s.created = nil
	s.slotSettledLocked()
}

// mergeCreated appends every created event the fetched list lacks.
func mergeCreated(list, created []models.Event) []models.Event {
	if len(created) == 0 {
		return list
	}
	seen := make(map[models.ID]bool, len(list))
	for _, e := range list {
		seen[e.ID] = true
	}
	for _, e := range created {
		if !seen[e.ID] {
			list = append(list, e)
			seen[e.ID] = true
		}
	}
	return list
}

func (s *Synchronizer) fetchCategories(ctx context.Context, gen uint64) {
	list, err := s.gateway.ListCategories(ctx)
	if err != nil && s.isCurrent(gen) {
		s.reporter.Failure(ctx, "LIST", "list categories", err, "Error fetching categories")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if err != nil {
		s.categoriesState = Failed
	} else {
		s.categories = list
		s.categoriesState = Loaded
	}
	s.slotSettledLocked()
}

func (s *Synchronizer) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

func (s *Synchronizer) slotSettledLocked() {
	if s.readyLocked() {
		s.deriveLocked()
		s.closeSettledLocked()
	}
}

func (s *Synchronizer) readyLocked() bool {
	return s.eventsState.Settled() && s.categoriesState.Settled()
}

func (s *Synchronizer) deriveLocked() {
	if !s.readyLocked() {
		return
	}
	s.rows = Derive(s.events, s.categories, s.filter, s.mode)
}

// Wait blocks until both slots have settled or ctx ends.
func (s *Synchronizer) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		ready := s.readyLocked()
		ch := s.settled
		s.mu.Unlock()

		if ready {
			return nil
		}
		if ch == nil {
			return ErrNotLoaded
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetFilter updates the search text and selected category and re-derives
// the rows when either changed.
func (s *Synchronizer) SetFilter(f models.Filter) {
	f = models.NewFilter(f.Search, f.Category)

	s.mu.Lock()
	defer s.mu.Unlock()
	if f == s.filter {
		return
	}
	s.filter = f
	s.deriveLocked()
}

func (s *Synchronizer) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Ready:           s.readyLocked(),
		EventsState:     s.eventsState,
		CategoriesState: s.categoriesState,
		Filter:          s.filter,
		Mode:            s.mode,
		Rows:            s.rows,
		Categories:      s.categories,
	}
}

// Create posts event to the backend and appends the created record to the
// in-memory list without re-fetching.
func (s *Synchronizer) Create(ctx context.Context, event models.Event) (*models.Event, error) {
	created, err := s.gateway.CreateEvent(ctx, event)
	if err != nil {
		s.reporter.Failure(ctx, "LIST", "create event", err, "Error adding event")
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.mu.Lock()
	next := make([]models.Event, 0, len(s.events)+1)
	next = append(next, s.events...)
	s.events = append(next, *created)
	if s.eventsState == Loading {
		s.created = append(s.created, *created)
	}
	s.deriveLocked()
	s.mu.Unlock()

	s.reporter.Published(ctx, models.NewEventChange(models.ChangeCreated, created.ID, created))
	return created, nil
}

// EventUpdated replaces the cached copy of event after a save elsewhere.
func (s *Synchronizer) EventUpdated(event models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Event, len(s.events))
	copy(next, s.events)
	for i := range next {
		if next[i].ID == event.ID {
			next[i] = event.Clone()
		}
	}
	s.events = next
	s.deriveLocked()
}

// EventDeleted drops the cached copy of an event deleted elsewhere.
func (s *Synchronizer) EventDeleted(id models.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		if e.ID != id {
			next = append(next, e)
		}
	}
	s.events = next
	s.deriveLocked()
}
