//go:build integration

package pagecache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		container.Terminate(ctx)
	}

	return client, cleanup
}

func TestStore_Integration_GetSet(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := New(redisClient, "2025-11-03")
	ctx := context.Background()
	endpoint := "https://api.cap.app/v1/caps/leaderboard"

	// Miss before set
	_, ok, err := store.Get(ctx, endpoint, 7)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Expected miss before Set")
	}

	// Set then hit
	if err := store.Set(ctx, endpoint, 7, 1234.5); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	sum, ok, err := store.Get(ctx, endpoint, 7)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Expected hit after Set")
	}
	if sum != 1234.5 {
		t.Errorf("Get() = %v, want 1234.5", sum)
	}

	// Other pages stay misses
	_, ok, err = store.Get(ctx, endpoint, 8)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Expected miss for page 8")
	}
}

func TestStore_Integration_TTLExpiry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := New(redisClient, "2025-11-03").WithTTL(time.Second)
	ctx := context.Background()
	endpoint := "https://api.cap.app/v1/caps/leaderboard"

	if err := store.Set(ctx, endpoint, 1, 10); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	_, ok, err := store.Get(ctx, endpoint, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Expected entry to expire after TTL")
	}
}
