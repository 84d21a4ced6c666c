package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"events-portal/internal/logger"
	"events-portal/internal/models"
)

const toastKeyPrefix = "toasts:"

// RedisStore keeps each session's pending toasts in a Redis list.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStore{Client: client, TTL: ttl}
}

func (s *RedisStore) Push(ctx context.Context, sessionID string, toast models.Toast) error {
	if s.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	payload, err := json.Marshal(toast)
	if err != nil {
		return fmt.Errorf("failed to marshal toast: %w", err)
	}

	key := toastKeyPrefix + sessionID
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.Expire(ctx, key, s.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store toast in Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Drain(ctx context.Context, sessionID string) ([]models.Toast, error) {
	if s.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	key := toastKeyPrefix + sessionID
	var values *redis.StringSliceCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		values = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read toasts from Redis: %w", err)
	}

	raw, err := values.Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read toasts from Redis: %w", err)
	}

	toasts := make([]models.Toast, 0, len(raw))
	for _, item := range raw {
		var toast models.Toast
		if err := json.Unmarshal([]byte(item), &toast); err != nil {
			continue
		}
		toasts = append(toasts, toast)
	}
	return toasts, nil
}

// MemoryStore is the Store used when Redis is disabled.
type MemoryStore struct {
	mu     sync.Mutex
	toasts map[string][]models.Toast
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{toasts: make(map[string][]models.Toast)}
}

func (s *MemoryStore) Push(_ context.Context, sessionID string, toast models.Toast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts[sessionID] = append(s.toasts[sessionID], toast)
	return nil
}

func (s *MemoryStore) Drain(_ context.Context, sessionID string) ([]models.Toast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toasts := s.toasts[sessionID]
	delete(s.toasts, sessionID)
	return toasts, nil
}

// SessionNotifier delivers toasts into a Store under the session found in
// the context. Toasts without a session are only logged.
type SessionNotifier struct {
	Store  Store
	Logger *logger.Logger
}

func (n *SessionNotifier) Notify(ctx context.Context, toast models.Toast) {
	sessionID := SessionFrom(ctx)
	if sessionID == "" {
		n.Logger.Debug("TOAST", fmt.Sprintf("Dropping toast without session: %s", toast.Title))
		return
	}
	// The request that triggered the toast may already be gone.
	if err := n.Store.Push(context.WithoutCancel(ctx), sessionID, toast); err != nil {
		n.Logger.Error("TOAST", fmt.Sprintf("Failed to store toast for session %s: %v", sessionID, err))
		return
	}
	n.Logger.Debug("TOAST", fmt.Sprintf("[%s] %s - %s", toast.Status, sessionID, toast.Title))
}
