// Package coordinator sequences writes across the backing stores
package coordinator

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/documents"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Service coordinates multi-store writes. Every write follows the same
// order: primary store first, then secondary projections, then cache
// invalidation, then the lifecycle event. A primary failure stops the
// sequence; a primary success is never rolled back by a later failure.
type Service struct {
	customers repositories.CustomerRepo
	social    graph.SocialStore
	products  documents.ProductStore
	purchases documents.PurchaseStore
	cache     redis.RecommendationCache
	emitter   events.Emitter
	logger    ectologger.Logger
}

// NewService creates a new coordinator
func NewService(
	customers repositories.CustomerRepo,
	social graph.SocialStore,
	products documents.ProductStore,
	purchases documents.PurchaseStore,
	cache redis.RecommendationCache,
	emitter events.Emitter,
	logger ectologger.Logger,
) *Service {
	return &Service{
		customers: customers,
		social:    social,
		products:  products,
		purchases: purchases,
		cache:     cache,
		emitter:   emitter,
		logger:    logger,
	}
}

// CreateCustomer writes the customer to the registry, then projects the
// node into the social graph. A graph failure leaves the registry row in
// place; the projection is retried by replaying the request, which the
// graph MERGE makes idempotent.
func (s *Service) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	ctx, span := tracing.StartSpan(ctx, "Coordinator.CreateCustomer")
	defer span.End()

	if err := s.customers.Create(ctx, customer); err != nil {
		metrics.WritesTotal.WithLabelValues("customer", metrics.OutcomeError).Inc()
		return err
	}

	if err := s.social.EnsureCustomer(ctx, customer); err != nil {
		metrics.WritesTotal.WithLabelValues("customer", metrics.OutcomeError).Inc()
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customer.CustomerID,
		}).Error("registry row committed but graph projection failed")
		return err
	}

	s.emitter.CustomerCreated(ctx, customer)
	metrics.WritesTotal.WithLabelValues("customer", metrics.OutcomeSuccess).Inc()
	return nil
}

// CreateProduct writes the product to the catalog
func (s *Service) CreateProduct(ctx context.Context, product *models.Product) error {
	ctx, span := tracing.StartSpan(ctx, "Coordinator.CreateProduct")
	defer span.End()

	if err := s.products.Create(ctx, product); err != nil {
		metrics.WritesTotal.WithLabelValues("product", metrics.OutcomeError).Inc()
		return err
	}

	s.emitter.ProductCreated(ctx, product)
	metrics.WritesTotal.WithLabelValues("product", metrics.OutcomeSuccess).Inc()
	return nil
}

// CreateFriendship links two customers in the social graph and drops both
// customers' cached recommendations, since each list depends on the other's
// purchases from now on.
func (s *Service) CreateFriendship(ctx context.Context, customerID string, friendID string) (*graph.Friendship, error) {
	ctx, span := tracing.StartSpan(ctx, "Coordinator.CreateFriendship")
	defer span.End()

	if customerID == friendID {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "a customer cannot befriend themselves")
	}

	friendship, err := s.social.CreateFriendship(ctx, customerID, friendID)
	if err != nil {
		metrics.WritesTotal.WithLabelValues("friendship", metrics.OutcomeError).Inc()
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, customerID, friendID); err != nil {
		metrics.WritesTotal.WithLabelValues("friendship", metrics.OutcomeError).Inc()
		return nil, err
	}

	s.emitter.FriendshipCreated(ctx, customerID, friendID)
	metrics.WritesTotal.WithLabelValues("friendship", metrics.OutcomeSuccess).Inc()
	return friendship, nil
}

// RegisterPurchase verifies the customer, records the purchase against the
// ledger, and drops the purchaser's cached recommendations. Friends' caches
// are left to expire on their own.
func (s *Service) RegisterPurchase(ctx context.Context, customerID string, productID int64, quantity int64) (*models.Purchase, error) {
	ctx, span := tracing.StartSpan(ctx, "Coordinator.RegisterPurchase")
	defer span.End()

	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		metrics.PurchasesTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return nil, err
	}

	purchase, err := s.purchases.Register(ctx, customerID, productID, quantity)
	if err != nil {
		metrics.PurchasesTotal.WithLabelValues(purchaseOutcome(err)).Inc()
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, customerID); err != nil {
		metrics.PurchasesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	s.emitter.PurchaseRegistered(ctx, purchase)
	metrics.PurchasesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return purchase, nil
}

func purchaseOutcome(err error) string {
	switch httperror.GetStatusCode(err) {
	case http.StatusNotFound:
		return metrics.OutcomeNotFound
	case http.StatusBadRequest:
		return metrics.OutcomeInsufficientStock
	default:
		return metrics.OutcomeError
	}
}
