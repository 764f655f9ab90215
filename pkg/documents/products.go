package documents

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ProductStore is the catalog contract consumed by the coordinator and the
// recommendation service
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, productID int64) (*models.Product, error)
	ListByIDs(ctx context.Context, productIDs []int64) ([]models.Product, error)
}

// ProductService manages the product catalog collection
type ProductService struct {
	client *Client
	logger ectologger.Logger
}

// NewProductService creates a new product store
func NewProductService(client *Client, logger ectologger.Logger) *ProductService {
	return &ProductService{
		client: client,
		logger: logger,
	}
}

// Create inserts the product exactly once. The unique index on product_id
// turns a concurrent duplicate into a duplicate key error, so there is no
// separate existence check to race against.
func (s *ProductService) Create(ctx context.Context, product *models.Product) error {
	ctx, span := tracing.StartSpan(ctx, "ProductService.Create")
	defer span.End()

	_, err := s.client.Collection(productsCollection).InsertOne(ctx, product)
	if mongo.IsDuplicateKeyError(err) {
		return httperror.NewHTTPErrorf(http.StatusConflict, "product %d already exists", product.ProductID)
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"product_id": product.ProductID,
		}).Error("failed to create product")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create product")
	}

	return nil
}

// GetByID retrieves a product by its id
func (s *ProductService) GetByID(ctx context.Context, productID int64) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductService.GetByID")
	defer span.End()

	var product models.Product
	err := s.client.Collection(productsCollection).FindOne(ctx, bson.M{"product_id": productID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "product %d does not exist", productID)
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"product_id": productID,
		}).Error("failed to get product")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get product")
	}

	return &product, nil
}

// ListByIDs returns the products matching the given ids. Missing ids are
// skipped rather than reported.
func (s *ProductService) ListByIDs(ctx context.Context, productIDs []int64) ([]models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductService.ListByIDs")
	defer span.End()

	products := make([]models.Product, 0, len(productIDs))
	if len(productIDs) == 0 {
		return products, nil
	}

	cursor, err := s.client.Collection(productsCollection).Find(ctx,
		bson.M{"product_id": bson.M{"$in": productIDs}},
		options.Find().SetProjection(bson.M{"_id": 0}),
	)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to list products")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list products")
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &products); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to decode products")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list products")
	}

	return products, nil
}
