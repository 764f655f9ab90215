package documents

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// PurchaseStore is the ledger contract consumed by the coordinator and the
// recommendation service
type PurchaseStore interface {
	Register(ctx context.Context, customerID string, productID int64, quantity int64) (*models.Purchase, error)
	DistinctProductIDs(ctx context.Context, customerIDs []string) ([]int64, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Purchase, error)
}

// PurchaseService manages the purchase ledger collection
type PurchaseService struct {
	client *Client
	logger ectologger.Logger
}

// NewPurchaseService creates a new purchase store
func NewPurchaseService(client *Client, logger ectologger.Logger) *PurchaseService {
	return &PurchaseService{
		client: client,
		logger: logger,
	}
}

// Register records a purchase. The stock decrement, the purchase id
// allocation and the ledger insert run in one session transaction, so a
// failure after the decrement cannot leak stock or burn an id.
//
// The decrement filter requires stock >= quantity. When it matches nothing
// the product is either missing or short on stock; a follow-up lookup
// distinguishes the two.
func (s *PurchaseService) Register(ctx context.Context, customerID string, productID int64, quantity int64) (*models.Purchase, error) {
	ctx, span := tracing.StartSpan(ctx, "PurchaseService.Register")
	defer span.End()

	result, err := s.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		var product models.Product
		err := s.client.Collection(productsCollection).FindOneAndUpdate(sessCtx,
			bson.M{"product_id": productID, "stock": bson.M{"$gte": quantity}},
			bson.M{"$inc": bson.M{"stock": -quantity}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&product)
		if errors.Is(err, mongo.ErrNoDocuments) {
			exists, lookupErr := s.productExists(sessCtx, productID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if !exists {
				return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "product %d does not exist", productID)
			}
			return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "insufficient stock for product %d", productID)
		}
		if err != nil {
			return nil, err
		}

		purchaseID, err := s.nextPurchaseID(sessCtx)
		if err != nil {
			return nil, err
		}

		purchase := &models.Purchase{
			PurchaseID:  purchaseID,
			CustomerID:  customerID,
			ProductID:   productID,
			Quantity:    quantity,
			Total:       product.Price * float64(quantity),
			PurchasedAt: time.Now().UTC(),
		}

		if _, err := s.client.Collection(purchasesCollection).InsertOne(sessCtx, purchase); err != nil {
			return nil, err
		}

		return purchase, nil
	})
	if err != nil {
		if httperror.IsHTTPError(err) {
			return nil, err
		}
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
			"product_id":  productID,
			"quantity":    quantity,
		}).Error("failed to register purchase")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to register purchase")
	}

	return result.(*models.Purchase), nil
}

// DistinctProductIDs returns the unique product ids purchased by any of the
// given customers
func (s *PurchaseService) DistinctProductIDs(ctx context.Context, customerIDs []string) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "PurchaseService.DistinctProductIDs")
	defer span.End()

	if len(customerIDs) == 0 {
		return []int64{}, nil
	}

	values, err := s.client.Collection(purchasesCollection).Distinct(ctx, "product_id",
		bson.M{"customer_id": bson.M{"$in": customerIDs}})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to list distinct product ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list purchases")
	}

	ids := make([]int64, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case int64:
			ids = append(ids, v)
		case int32:
			ids = append(ids, int64(v))
		}
	}
	return ids, nil
}

// ListByCustomer returns every purchase made by the given customer
func (s *PurchaseService) ListByCustomer(ctx context.Context, customerID string) ([]models.Purchase, error) {
	ctx, span := tracing.StartSpan(ctx, "PurchaseService.ListByCustomer")
	defer span.End()

	cursor, err := s.client.Collection(purchasesCollection).Find(ctx,
		bson.M{"customer_id": customerID},
		options.Find().SetProjection(bson.M{"_id": 0}).SetSort(bson.M{"purchase_id": 1}),
	)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
		}).Error("failed to list purchases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list purchases")
	}
	defer cursor.Close(ctx)

	purchases := make([]models.Purchase, 0)
	if err := cursor.All(ctx, &purchases); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to decode purchases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list purchases")
	}

	return purchases, nil
}

// nextPurchaseID atomically increments and returns the purchase sequence
func (s *PurchaseService) nextPurchaseID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.client.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": purchaseCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (s *PurchaseService) productExists(ctx context.Context, productID int64) (bool, error) {
	err := s.client.Collection(productsCollection).FindOne(ctx, bson.M{"product_id": productID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
