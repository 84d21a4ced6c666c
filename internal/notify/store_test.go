package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-portal/internal/logger"
	"events-portal/internal/models"
)

// setupTestRedis returns a client connected to an in-memory miniredis server.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisStorePushAndDrain(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, "s1", models.ErrorToast("Error fetching events")))
	require.NoError(t, store.Push(ctx, "s1", models.SuccessToast("Event deleted successfully!")))
	require.NoError(t, store.Push(ctx, "s2", models.ErrorToast("other session")))

	toasts, err := store.Drain(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, toasts, 2)
	assert.Equal(t, "Error fetching events", toasts[0].Title)
	assert.Equal(t, models.ToastError, toasts[0].Status)
	assert.Equal(t, models.ToastSuccess, toasts[1].Status)

	toasts, err = store.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, toasts)

	toasts, err = store.Drain(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, toasts, 1)
}

func TestRedisStoreExpiresToasts(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, "s1", models.ErrorToast("stale")))
	mr.FastForward(2 * time.Minute)

	toasts, err := store.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, toasts)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, "s1", models.ErrorToast("a")))
	toasts, err := store.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, toasts, 1)

	toasts, err = store.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, toasts)
}

func TestSessionNotifierRoutesBySession(t *testing.T) {
	store := NewMemoryStore()
	n := &SessionNotifier{Store: store, Logger: logger.Discard()}

	n.Notify(WithSession(context.Background(), "abc"), models.ErrorToast("Error deleting event"))
	n.Notify(context.Background(), models.ErrorToast("nowhere"))

	toasts, _ := store.Drain(context.Background(), "abc")
	require.Len(t, toasts, 1)
	assert.Equal(t, "Error deleting event", toasts[0].Title)
}
