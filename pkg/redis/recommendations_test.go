package redis_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
)

func getTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func getTestClient(t *testing.T) *redis.Client {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := 6379
	if raw := os.Getenv("REDIS_PORT"); raw != "" {
		port, _ = strconv.Atoi(raw)
	}

	client, err := redis.NewClient(redis.Config{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
	}, getTestLogger())
	require.NoError(t, err, "Failed to connect to test redis")

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestRecommendationStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	store := redis.NewRecommendationStore(client, time.Hour, getTestLogger())
	ctx := context.Background()
	customerID := uuid.New().String()

	// empty cache misses
	_, found, err := store.Get(ctx, customerID)
	require.NoError(t, err)
	assert.False(t, found)

	products := []models.Product{
		{ProductID: 1, Name: "Widget", Stock: 3, Price: 9.99},
		{ProductID: 2, Name: "Gadget", Stock: 1, Price: 19.99},
	}
	require.NoError(t, store.Set(ctx, customerID, products))

	cached, found, err := store.Get(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, products, cached)
}

func TestRecommendationStore_EmptyListIsCached(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	store := redis.NewRecommendationStore(client, time.Hour, getTestLogger())
	ctx := context.Background()
	customerID := uuid.New().String()

	// an empty list is a valid cached value, distinct from a miss
	require.NoError(t, store.Set(ctx, customerID, []models.Product{}))

	cached, found, err := store.Get(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, cached)
}

func TestRecommendationStore_Invalidate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	store := redis.NewRecommendationStore(client, time.Hour, getTestLogger())
	ctx := context.Background()

	first := uuid.New().String()
	second := uuid.New().String()
	require.NoError(t, store.Set(ctx, first, []models.Product{{ProductID: 1}}))
	require.NoError(t, store.Set(ctx, second, []models.Product{{ProductID: 2}}))

	require.NoError(t, store.Invalidate(ctx, first, second))

	_, found, err := store.Get(ctx, first)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.Get(ctx, second)
	require.NoError(t, err)
	assert.False(t, found)

	// invalidating nothing is a no-op
	require.NoError(t, store.Invalidate(ctx))
}

func TestRecommendationStore_EntriesExpire(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	store := redis.NewRecommendationStore(client, time.Second, getTestLogger())
	ctx := context.Background()
	customerID := uuid.New().String()

	require.NoError(t, store.Set(ctx, customerID, []models.Product{{ProductID: 1}}))

	time.Sleep(1500 * time.Millisecond)

	_, found, err := store.Get(ctx, customerID)
	require.NoError(t, err)
	assert.False(t, found, "entry should expire after the TTL")
}
