// Package recommendation computes friend-based product recommendations
package recommendation

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/documents"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Service serves recommendation lists through a read-through cache. A
// customer's recommendations are the distinct products their friends have
// purchased.
type Service struct {
	social    graph.SocialStore
	products  documents.ProductStore
	purchases documents.PurchaseStore
	cache     redis.RecommendationCache
	logger    ectologger.Logger
}

// NewService creates a new recommendation service
func NewService(
	social graph.SocialStore,
	products documents.ProductStore,
	purchases documents.PurchaseStore,
	cache redis.RecommendationCache,
	logger ectologger.Logger,
) *Service {
	return &Service{
		social:    social,
		products:  products,
		purchases: purchases,
		cache:     cache,
		logger:    logger,
	}
}

// Recommend returns the product recommendations for a customer. A cached
// list is served as-is; otherwise the list is computed from the social
// graph and the ledger and cached for the configured TTL. A customer with
// no friends, no purchases among their friends, or no graph node at all
// gets an empty list rather than an error.
func (s *Service) Recommend(ctx context.Context, customerID string) ([]models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "Recommendation.Recommend")
	defer span.End()

	cached, found, err := s.cache.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if found {
		metrics.RecommendationCacheTotal.WithLabelValues(metrics.ResultHit).Inc()
		return cached, nil
	}
	metrics.RecommendationCacheTotal.WithLabelValues(metrics.ResultMiss).Inc()

	start := time.Now()
	products, err := s.compute(ctx, customerID)
	if err != nil {
		return nil, err
	}
	metrics.RecommendationComputeDuration.Observe(time.Since(start).Seconds())

	// a failed cache write only costs the next request a recompute
	if err := s.cache.Set(ctx, customerID, products); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
		}).Warn("failed to cache recommendations")
	}

	return products, nil
}

func (s *Service) compute(ctx context.Context, customerID string) ([]models.Product, error) {
	friendIDs, err := s.social.FriendIDs(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return []models.Product{}, nil
	}

	productIDs, err := s.purchases.DistinctProductIDs(ctx, friendIDs)
	if err != nil {
		return nil, err
	}
	if len(productIDs) == 0 {
		return []models.Product{}, nil
	}

	return s.products.ListByIDs(ctx, productIDs)
}
