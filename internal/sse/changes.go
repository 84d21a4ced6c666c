package sse

import (
	"context"
	"sync"

	"events-portal/internal/models"
)

// ChangeEmitter fans event changes out to connected browsers.
type ChangeEmitter struct {
	mu      sync.RWMutex
	clients []chan models.EventChange
}

func NewChangeEmitter() *ChangeEmitter {
	return &ChangeEmitter{}
}

// Subscribe registers a client until ctx is done. The channel is closed on
// removal.
func (e *ChangeEmitter) Subscribe(ctx context.Context) <-chan models.EventChange {
	clientChan := make(chan models.EventChange, 10)

	e.mu.Lock()
	e.clients = append(e.clients, clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(clientChan)
	}()

	return clientChan
}

// PublishEventChange broadcasts without blocking. A client whose buffer is
// full misses the change.
func (e *ChangeEmitter) PublishEventChange(_ context.Context, change models.EventChange) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, clientChan := range e.clients {
		select {
		case clientChan <- change:
		default:
		}
	}
	return nil
}

func (e *ChangeEmitter) remove(clientChan chan models.EventChange) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, ch := range e.clients {
		if ch == clientChan {
			e.clients = append(e.clients[:i], e.clients[i+1:]...)
			close(clientChan)
			return
		}
	}
}

func (e *ChangeEmitter) ClientCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients)
}
