package documents_test

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/documents"
	"github.com/Ramsey-B/clover/pkg/models"
)

func getTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func getTestClient(t *testing.T) *documents.Client {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "clover_test"
	}

	client, err := documents.NewClient(context.Background(), uri, dbName, getTestLogger())
	require.NoError(t, err, "Failed to connect to test mongo")
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})
	return client
}

// product ids in tests are derived from the uuid clock sequence so parallel
// runs do not collide
func testProductID() int64 {
	return int64(uuid.New().ID())
}

func TestProductService_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	svc := documents.NewProductService(client, getTestLogger())
	ctx := context.Background()

	product := &models.Product{
		ProductID: testProductID(),
		Name:      "Widget",
		Stock:     10,
		Price:     9.99,
	}
	require.NoError(t, svc.Create(ctx, product))

	fetched, err := svc.GetByID(ctx, product.ProductID)
	require.NoError(t, err)
	assert.Equal(t, product.Name, fetched.Name)
	assert.Equal(t, product.Stock, fetched.Stock)
	assert.Equal(t, product.Price, fetched.Price)
}

func TestProductService_DuplicateIDConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	svc := documents.NewProductService(client, getTestLogger())
	ctx := context.Background()

	product := &models.Product{ProductID: testProductID(), Name: "Widget", Stock: 1, Price: 1}
	require.NoError(t, svc.Create(ctx, product))

	err := svc.Create(ctx, &models.Product{ProductID: product.ProductID, Name: "Other", Stock: 2, Price: 2})
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestPurchaseService_ConcurrentRegistersNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	products := documents.NewProductService(client, getTestLogger())
	purchases := documents.NewPurchaseService(client, getTestLogger())
	ctx := context.Background()

	const stock = 10
	const attempts = 20

	product := &models.Product{ProductID: testProductID(), Name: "Widget", Stock: stock, Price: 1}
	require.NoError(t, products.Create(ctx, product))

	customerID := uuid.New().String()

	var wg sync.WaitGroup
	results := make(chan *models.Purchase, attempts)
	failures := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			purchase, err := purchases.Register(ctx, customerID, product.ProductID, 1)
			if err != nil {
				failures <- err
				return
			}
			results <- purchase
		}()
	}
	wg.Wait()
	close(results)
	close(failures)

	// exactly as many purchases succeed as there was stock
	seen := make(map[int64]bool)
	succeeded := 0
	for purchase := range results {
		succeeded++
		assert.False(t, seen[purchase.PurchaseID], "purchase id %d issued twice", purchase.PurchaseID)
		seen[purchase.PurchaseID] = true
	}
	assert.Equal(t, stock, succeeded)

	failed := 0
	for err := range failures {
		failed++
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	}
	assert.Equal(t, attempts-stock, failed)

	// stock is fully consumed, never negative
	fetched, err := products.GetByID(ctx, product.ProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fetched.Stock)
}

func TestPurchaseService_RegisterDecrementsStockAndAssignsIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	products := documents.NewProductService(client, getTestLogger())
	purchases := documents.NewPurchaseService(client, getTestLogger())
	ctx := context.Background()

	product := &models.Product{ProductID: testProductID(), Name: "Widget", Stock: 10, Price: 2.50}
	require.NoError(t, products.Create(ctx, product))

	customerID := uuid.New().String()

	first, err := purchases.Register(ctx, customerID, product.ProductID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5.0, first.Total)
	assert.GreaterOrEqual(t, first.PurchaseID, int64(2001))

	second, err := purchases.Register(ctx, customerID, product.ProductID, 1)
	require.NoError(t, err)
	assert.Greater(t, second.PurchaseID, first.PurchaseID, "purchase ids must be strictly increasing")

	fetched, err := products.GetByID(ctx, product.ProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), fetched.Stock)

	listed, err := purchases.ListByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.PurchaseID, listed[0].PurchaseID)
}

func TestPurchaseService_RegisterInsufficientStock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	products := documents.NewProductService(client, getTestLogger())
	purchases := documents.NewPurchaseService(client, getTestLogger())
	ctx := context.Background()

	product := &models.Product{ProductID: testProductID(), Name: "Widget", Stock: 1, Price: 1}
	require.NoError(t, products.Create(ctx, product))

	_, err := purchases.Register(ctx, uuid.New().String(), product.ProductID, 5)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	// failed purchase must not touch the stock
	fetched, err := products.GetByID(ctx, product.ProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetched.Stock)
}

func TestPurchaseService_RegisterUnknownProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	purchases := documents.NewPurchaseService(client, getTestLogger())

	_, err := purchases.Register(context.Background(), uuid.New().String(), testProductID(), 1)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestPurchaseService_DistinctProductIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := getTestClient(t)
	products := documents.NewProductService(client, getTestLogger())
	purchases := documents.NewPurchaseService(client, getTestLogger())
	ctx := context.Background()

	product := &models.Product{ProductID: testProductID(), Name: "Widget", Stock: 10, Price: 1}
	require.NoError(t, products.Create(ctx, product))

	buyer := uuid.New().String()
	_, err := purchases.Register(ctx, buyer, product.ProductID, 1)
	require.NoError(t, err)
	_, err = purchases.Register(ctx, buyer, product.ProductID, 1)
	require.NoError(t, err)

	// two purchases of the same product dedupe to one id
	ids, err := purchases.DistinctProductIDs(ctx, []string{buyer})
	require.NoError(t, err)
	assert.Equal(t, []int64{product.ProductID}, ids)

	// no customers means no lookup
	ids, err = purchases.DistinctProductIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
