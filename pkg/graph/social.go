package graph

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Friendship holds the resolved names of both ends of a new friendship
type Friendship struct {
	CustomerName string `json:"customer_name"`
	FriendName   string `json:"friend_name"`
}

// SocialStore is the graph contract consumed by the coordinator and the
// recommendation service
type SocialStore interface {
	EnsureCustomer(ctx context.Context, customer *models.Customer) error
	CreateFriendship(ctx context.Context, customerID string, friendID string) (*Friendship, error)
	FriendIDs(ctx context.Context, customerID string) ([]string, error)
}

// SocialService manages customer nodes and friendship edges
type SocialService struct {
	client *Client
	logger ectologger.Logger
}

// NewSocialService creates a new social graph service
func NewSocialService(client *Client, logger ectologger.Logger) *SocialService {
	return &SocialService{
		client: client,
		logger: logger,
	}
}

// EnsureCustomer creates the customer node if it does not exist yet. An
// existing node is left untouched so a replayed projection never clobbers
// its attributes.
func (s *SocialService) EnsureCustomer(ctx context.Context, customer *models.Customer) error {
	ctx, span := tracing.StartSpan(ctx, "SocialService.EnsureCustomer")
	defer span.End()

	query := `MERGE (c:Customer {customer_id: $customer_id})
		ON CREATE SET c.name = $name, c.phone = $phone, c.email = $email`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"customer_id": customer.CustomerID,
			"name":        customer.Name,
			"phone":       customer.Phone,
			"email":       customer.Email,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customer.CustomerID,
		}).Error("failed to ensure customer node")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create customer node")
	}

	return nil
}

// CreateFriendship links both customers with a directed FRIEND_OF edge in
// each direction inside a single write transaction. MERGE keeps the pair of
// edges idempotent. Returns the names of both customers, or a not found
// error when either node is missing.
func (s *SocialService) CreateFriendship(ctx context.Context, customerID string, friendID string) (*Friendship, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialService.CreateFriendship")
	defer span.End()

	query := `MATCH (a:Customer {customer_id: $customer_id})
		MATCH (b:Customer {customer_id: $friend_id})
		MERGE (a)-[:FRIEND_OF]->(b)
		MERGE (b)-[:FRIEND_OF]->(a)
		RETURN a.name AS customer_name, b.name AS friend_name`

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"customer_id": customerID,
			"friend_id":   friendID,
		})
		if err != nil {
			return nil, err
		}

		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		// no record means at least one MATCH found nothing
		if len(records) == 0 {
			return nil, nil
		}

		record := records[0]
		friendship := &Friendship{}
		if name, ok := record.Get("customer_name"); ok {
			friendship.CustomerName, _ = name.(string)
		}
		if name, ok := record.Get("friend_name"); ok {
			friendship.FriendName, _ = name.(string)
		}
		return friendship, nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
			"friend_id":   friendID,
		}).Error("failed to create friendship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create friendship")
	}

	friendship, ok := result.(*Friendship)
	if !ok || friendship == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "one or both customers do not exist")
	}

	return friendship, nil
}

// FriendIDs returns the ids of every customer the given customer has an
// outgoing FRIEND_OF edge to. A customer with no friends, or no node at
// all, yields an empty slice.
func (s *SocialService) FriendIDs(ctx context.Context, customerID string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialService.FriendIDs")
	defer span.End()

	query := `MATCH (:Customer {customer_id: $customer_id})-[:FRIEND_OF]->(f:Customer)
		RETURN f.customer_id AS friend_id`

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"customer_id": customerID,
		})
		if err != nil {
			return nil, err
		}

		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(records))
		for _, record := range records {
			if value, ok := record.Get("friend_id"); ok {
				if id, ok := value.(string); ok {
					ids = append(ids, id)
				}
			}
		}
		return ids, nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
		}).Error("failed to list friend ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list friends")
	}

	ids, _ := result.([]string)
	return ids, nil
}
