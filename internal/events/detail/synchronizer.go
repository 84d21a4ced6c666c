// Package detail keeps the state behind the single-event page: the event,
// its creator, its category badges, and the edit and delete flows.
package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"events-portal/internal/events"
	"events-portal/internal/events/form"
	"events-portal/internal/models"
)

const DefaultFanout = 4

var (
	ErrNotLoaded          = errors.New("event is not loaded")
	ErrDeleteNotConfirmed = errors.New("delete has not been confirmed")
)

type Gateway interface {
	GetEvent(ctx context.Context, id models.ID) (*models.Event, error)
	UpdateEvent(ctx context.Context, id models.ID, event models.Event) (*models.Event, error)
	DeleteEvent(ctx context.Context, id models.ID) error
	GetCategory(ctx context.Context, id models.ID) (*models.Category, error)
	GetUser(ctx context.Context, id models.ID) (*models.User, error)
}

// Listener is told about mutations so that cached lists stay current.
type Listener interface {
	EventUpdated(event models.Event)
	EventDeleted(id models.ID)
}

type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Badge is one category of the event, in categoryIds order.
type Badge struct {
	ID       models.ID
	Name     string
	Resolved bool
}

type View struct {
	Status           Status
	EventID          models.ID
	Event            *models.Event
	Creator          *models.User
	Badges           []Badge
	JoinErrors       []error
	Editing          bool
	Draft            form.Draft
	ConfirmingDelete bool
}

// CreatorName is empty when the creator panel should not be shown.
func (v View) CreatorName() string {
	if v.Creator == nil {
		return ""
	}
	if v.Creator.Name == "" && v.Event != nil {
		return v.Event.CreatedBy.String()
	}
	return v.Creator.DisplayName()
}

type Synchronizer struct {
	gateway  Gateway
	reporter *events.Reporter
	fanout   int

	mu            sync.Mutex
	listener      Listener
	generation    uint64
	cancel        context.CancelFunc
	settled       chan struct{}
	settledClosed bool
	creatorDone   chan struct{}
	id            models.ID
	status        Status
	event         *models.Event
	creator       *models.User
	categories    map[models.ID]models.Category
	joinErrs      []error
	editing       bool
	draft         form.Draft
	confirming    bool
}

func New(gateway Gateway, reporter *events.Reporter, fanout int) *Synchronizer {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &Synchronizer{
		gateway:  gateway,
		reporter: reporter,
		fanout:   fanout,
	}
}

func (s *Synchronizer) SetListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Open starts loading the event with the given id. Anything still loading
// for a previous id is cancelled and its results are dropped.
func (s *Synchronizer) Open(ctx context.Context, id models.ID) {
	s.open(ctx, id, func() bool { return true })
}

// reopen reloads id only while gen is still the current generation, so a
// save that finishes after the view moved on leaves it alone.
func (s *Synchronizer) reopen(ctx context.Context, id models.ID, gen uint64) bool {
	return s.open(ctx, id, func() bool { return s.current(gen) })
}

// open runs allowed with mu held before resetting any state.
func (s *Synchronizer) open(ctx context.Context, id models.ID, allowed func() bool) bool {
	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if !allowed() {
		s.mu.Unlock()
		cancel()
		return false
	}
	s.supersedeLocked()
	gen := s.generation
	s.cancel = cancel
	s.settled = make(chan struct{})
	s.settledClosed = false
	creatorDone := make(chan struct{})
	s.creatorDone = creatorDone
	s.id = id
	s.status = Loading
	s.event = nil
	s.creator = nil
	s.categories = make(map[models.ID]models.Category)
	s.joinErrs = nil
	s.editing = false
	s.draft = form.Draft{}
	s.confirming = false
	s.mu.Unlock()

	go s.load(loadCtx, gen, id, creatorDone)
	return true
}

// Close cancels whatever is loading.
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

// current must be called with mu held.
func (s *Synchronizer) current(gen uint64) bool {
	return gen == s.generation
}

func (s *Synchronizer) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(gen)
}

func (s *Synchronizer) load(ctx context.Context, gen uint64, id models.ID, creatorDone chan struct{}) {
	event, err := s.gateway.GetEvent(ctx, id)
	if err != nil && s.isCurrent(gen) {
		s.reporter.Failure(ctx, "DETAIL", "get event", err, "Error fetching event details")
	}

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		close(creatorDone)
		return
	}
	if err != nil {
		s.status = Failed
		s.closeSettledLocked()
		s.mu.Unlock()
		close(creatorDone)
		return
	}
	loaded := event.Clone()
	s.event = &loaded
	s.mu.Unlock()

	if loaded.CreatedBy.IsZero() {
		close(creatorDone)
	} else {
		go func() {
			defer close(creatorDone)
			s.loadCreator(ctx, gen, loaded.CreatedBy)
		}()
	}
	s.loadCategories(ctx, gen, loaded.CategoryIDs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current(gen) && s.status == Loading {
		s.status = Ready
		s.closeSettledLocked()
	}
}

func (s *Synchronizer) loadCreator(ctx context.Context, gen uint64, id models.ID) {
	user, err := s.gateway.GetUser(ctx, id)
	if err != nil {
		if s.isCurrent(gen) {
			s.reporter.Failure(ctx, "DETAIL", "get user", err, "")
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current(gen) {
		s.creator = user
	}
}

// loadCategories resolves each distinct id with at most fanout requests in
// flight. A failed id is recorded as a join error; the others still resolve.
func (s *Synchronizer) loadCategories(ctx context.Context, gen uint64, ids []models.ID) {
	var g errgroup.Group
	g.SetLimit(s.fanout)

	seen := make(map[models.ID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		id := id
		g.Go(func() error {
			category, err := s.gateway.GetCategory(ctx, id)
			s.settleCategory(ctx, gen, id, category, err)
			return nil
		})
	}
	g.Wait()
}

func (s *Synchronizer) settleCategory(ctx context.Context, gen uint64, id models.ID, category *models.Category, err error) {
	if err != nil && s.isCurrent(gen) {
		s.reporter.Failure(ctx, "DETAIL", "get category", err, "")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return
	}
	if err != nil {
		s.joinErrs = append(s.joinErrs, &models.PartialJoinError{Kind: "category", ID: id, Err: err})
	} else {
		s.categories[id] = *category
	}
}

// Wait blocks until the open event is ready or has failed.
func (s *Synchronizer) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		status := s.status
		ch := s.settled
		s.mu.Unlock()

		switch {
		case status == Ready || status == Failed:
			return nil
		case ch == nil:
			return ErrNotLoaded
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitCreator blocks until the creator lookup of the open event has
// finished, successfully or not. Readiness never depends on it.
func (s *Synchronizer) WaitCreator(ctx context.Context) error {
	s.mu.Lock()
	done := s.creatorDone
	s.mu.Unlock()
	if done == nil {
		return ErrNotLoaded
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Synchronizer) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		Status:           s.status,
		EventID:          s.id,
		Editing:          s.editing,
		Draft:            s.draft,
		ConfirmingDelete: s.confirming,
		JoinErrors:       append([]error(nil), s.joinErrs...),
	}
	if s.creator != nil {
		creator := *s.creator
		view.Creator = &creator
	}
	if s.event != nil {
		event := s.event.Clone()
		view.Event = &event
		for _, id := range event.CategoryIDs {
			badge := Badge{ID: id, Name: models.UnknownCategory}
			if c, ok := s.categories[id]; ok {
				badge.Name = c.Name
				badge.Resolved = true
			}
			view.Badges = append(view.Badges, badge)
		}
	}
	return view
}

// BeginEdit opens the edit modal seeded with the loaded event.
func (s *Synchronizer) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event == nil {
		return ErrNotLoaded
	}
	s.editing = true
	s.draft = form.FromEvent(*s.event)
	return nil
}

func (s *Synchronizer) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = false
	s.draft = form.Draft{}
}

// Save validates draft and replaces the event on the backend. On success
// the event is fetched again unless another event was opened meanwhile; on
// failure the edit modal stays open with the draft as typed.
func (s *Synchronizer) Save(ctx context.Context, draft form.Draft) (*models.Event, error) {
	s.mu.Lock()
	id, gen, loaded := s.id, s.generation, s.event != nil
	if loaded {
		s.editing = true
		s.draft = draft
	}
	s.mu.Unlock()

	if !loaded {
		return nil, ErrNotLoaded
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	event := draft.Event()
	event.ID = id
	updated, err := s.gateway.UpdateEvent(ctx, id, event)
	if err != nil {
		s.reporter.Failure(ctx, "DETAIL", "update event", err, "Error updating event")
		return nil, fmt.Errorf("failed to update event %s: %w", id, err)
	}
	if updated == nil {
		updated = &event
	}

	s.reporter.Success(ctx, "DETAIL", "Event updated successfully!")
	s.reporter.Published(ctx, models.NewEventChange(models.ChangeUpdated, id, updated))
	if l := s.currentListener(); l != nil {
		l.EventUpdated(updated.Clone())
	}

	s.reopen(ctx, id, gen)
	return updated, nil
}

func (s *Synchronizer) currentListener() Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

func (s *Synchronizer) RequestDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id.IsZero() {
		return ErrNotLoaded
	}
	s.confirming = true
	return nil
}

func (s *Synchronizer) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirming = false
}

// ConfirmDelete deletes the open event. Once confirmed it always returns
// "/" as the page to navigate to, whether or not the backend succeeded.
func (s *Synchronizer) ConfirmDelete(ctx context.Context) (string, error) {
	s.mu.Lock()
	if !s.confirming {
		s.mu.Unlock()
		return "", ErrDeleteNotConfirmed
	}
	s.confirming = false
	id := s.id
	s.mu.Unlock()

	if err := s.gateway.DeleteEvent(ctx, id); err != nil {
		s.reporter.Failure(ctx, "DETAIL", "delete event", err, "Error deleting event")
		return "/", fmt.Errorf("failed to delete event %s: %w", id, err)
	}

	s.reporter.Success(ctx, "DETAIL", "Event deleted successfully!")
	s.reporter.Published(ctx, models.NewEventChange(models.ChangeDeleted, id, nil))
	if l := s.currentListener(); l != nil {
		l.EventDeleted(id)
	}
	return "/", nil
}
