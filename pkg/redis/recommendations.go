package redis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const recommendationKeyPrefix = "recommendations:"

// RecommendationCache is the cache contract consumed by the recommendation
// service and the coordinator
type RecommendationCache interface {
	Get(ctx context.Context, customerID string) ([]models.Product, bool, error)
	Set(ctx context.Context, customerID string, products []models.Product) error
	Invalidate(ctx context.Context, customerIDs ...string) error
}

// RecommendationStore caches computed recommendation lists per customer
type RecommendationStore struct {
	client *Client
	ttl    time.Duration
	logger ectologger.Logger
}

// NewRecommendationStore creates a new recommendation cache with the given
// entry lifetime
func NewRecommendationStore(client *Client, ttl time.Duration, logger ectologger.Logger) *RecommendationStore {
	return &RecommendationStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached recommendations for a customer. The second return
// reports whether the key was present; a cache miss is not an error.
func (s *RecommendationStore) Get(ctx context.Context, customerID string) ([]models.Product, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "RecommendationStore.Get")
	defer span.End()

	raw, err := s.client.Get(ctx, recommendationKeyPrefix+customerID)
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
		}).Error("failed to read recommendation cache")
		return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read recommendation cache")
	}

	var products []models.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		// a corrupt entry is treated as a miss so the caller recomputes it
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
		}).Warn("discarding corrupt recommendation cache entry")
		return nil, false, nil
	}

	return products, true, nil
}

// Set stores the recommendations for a customer with the configured TTL
func (s *RecommendationStore) Set(ctx context.Context, customerID string, products []models.Product) error {
	ctx, span := tracing.StartSpan(ctx, "RecommendationStore.Set")
	defer span.End()

	raw, err := json.Marshal(products)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to encode recommendations")
	}

	if err := s.client.Set(ctx, recommendationKeyPrefix+customerID, raw, s.ttl); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
		}).Error("failed to write recommendation cache")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to write recommendation cache")
	}

	return nil
}

// Invalidate drops the cached recommendations for the given customers
func (s *RecommendationStore) Invalidate(ctx context.Context, customerIDs ...string) error {
	ctx, span := tracing.StartSpan(ctx, "RecommendationStore.Invalidate")
	defer span.End()

	if len(customerIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(customerIDs))
	for _, id := range customerIDs {
		keys = append(keys, recommendationKeyPrefix+id)
	}

	if err := s.client.Del(ctx, keys...); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_ids": customerIDs,
		}).Error("failed to invalidate recommendation cache")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to invalidate recommendation cache")
	}

	return nil
}
