package coordinator_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/coordinator"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// callLog records store calls across fakes so tests can assert ordering
type callLog struct {
	calls []string
}

func (l *callLog) record(name string) {
	l.calls = append(l.calls, name)
}

type fakeCustomers struct {
	log       *callLog
	createErr error
	getErr    error
}

func (f *fakeCustomers) Create(ctx context.Context, customer *models.Customer) error {
	f.log.record("customers.Create")
	return f.createErr
}

func (f *fakeCustomers) GetByID(ctx context.Context, customerID string) (*models.Customer, error) {
	f.log.record("customers.GetByID")
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Customer{CustomerID: customerID, Name: "Alice"}, nil
}

type fakeSocial struct {
	log           *callLog
	ensureErr     error
	friendshipErr error
	friendIDs     []string
}

func (f *fakeSocial) EnsureCustomer(ctx context.Context, customer *models.Customer) error {
	f.log.record("social.EnsureCustomer")
	return f.ensureErr
}

func (f *fakeSocial) CreateFriendship(ctx context.Context, customerID string, friendID string) (*graph.Friendship, error) {
	f.log.record("social.CreateFriendship")
	if f.friendshipErr != nil {
		return nil, f.friendshipErr
	}
	return &graph.Friendship{CustomerName: "Alice", FriendName: "Bob"}, nil
}

func (f *fakeSocial) FriendIDs(ctx context.Context, customerID string) ([]string, error) {
	f.log.record("social.FriendIDs")
	return f.friendIDs, nil
}

type fakeProducts struct {
	log       *callLog
	createErr error
}

func (f *fakeProducts) Create(ctx context.Context, product *models.Product) error {
	f.log.record("products.Create")
	return f.createErr
}

func (f *fakeProducts) GetByID(ctx context.Context, productID int64) (*models.Product, error) {
	f.log.record("products.GetByID")
	return &models.Product{ProductID: productID}, nil
}

func (f *fakeProducts) ListByIDs(ctx context.Context, productIDs []int64) ([]models.Product, error) {
	f.log.record("products.ListByIDs")
	return nil, nil
}

type fakePurchases struct {
	log         *callLog
	registerErr error
}

func (f *fakePurchases) Register(ctx context.Context, customerID string, productID int64, quantity int64) (*models.Purchase, error) {
	f.log.record("purchases.Register")
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.Purchase{PurchaseID: 2001, CustomerID: customerID, ProductID: productID, Quantity: quantity}, nil
}

func (f *fakePurchases) DistinctProductIDs(ctx context.Context, customerIDs []string) ([]int64, error) {
	f.log.record("purchases.DistinctProductIDs")
	return nil, nil
}

func (f *fakePurchases) ListByCustomer(ctx context.Context, customerID string) ([]models.Purchase, error) {
	f.log.record("purchases.ListByCustomer")
	return nil, nil
}

type fakeCache struct {
	log           *callLog
	invalidateErr error
	invalidated   [][]string
}

func (f *fakeCache) Get(ctx context.Context, customerID string) ([]models.Product, bool, error) {
	f.log.record("cache.Get")
	return nil, false, nil
}

func (f *fakeCache) Set(ctx context.Context, customerID string, products []models.Product) error {
	f.log.record("cache.Set")
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, customerIDs ...string) error {
	f.log.record("cache.Invalidate")
	f.invalidated = append(f.invalidated, customerIDs)
	return f.invalidateErr
}

type fakeEmitter struct {
	log *callLog
}

func (f *fakeEmitter) CustomerCreated(ctx context.Context, customer *models.Customer) {
	f.log.record("events.CustomerCreated")
}

func (f *fakeEmitter) ProductCreated(ctx context.Context, product *models.Product) {
	f.log.record("events.ProductCreated")
}

func (f *fakeEmitter) FriendshipCreated(ctx context.Context, customerID string, friendID string) {
	f.log.record("events.FriendshipCreated")
}

func (f *fakeEmitter) PurchaseRegistered(ctx context.Context, purchase *models.Purchase) {
	f.log.record("events.PurchaseRegistered")
}

type fixture struct {
	log       *callLog
	customers *fakeCustomers
	social    *fakeSocial
	products  *fakeProducts
	purchases *fakePurchases
	cache     *fakeCache
	emitter   *fakeEmitter
	service   *coordinator.Service
}

func newFixture() *fixture {
	log := &callLog{}
	f := &fixture{
		log:       log,
		customers: &fakeCustomers{log: log},
		social:    &fakeSocial{log: log},
		products:  &fakeProducts{log: log},
		purchases: &fakePurchases{log: log},
		cache:     &fakeCache{log: log},
		emitter:   &fakeEmitter{log: log},
	}
	f.service = coordinator.NewService(f.customers, f.social, f.products, f.purchases, f.cache, f.emitter, testLogger())
	return f
}

func TestCreateCustomer_WritesRegistryBeforeGraph(t *testing.T) {
	f := newFixture()

	err := f.service.CreateCustomer(context.Background(), &models.Customer{CustomerID: "c1", Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, []string{"customers.Create", "social.EnsureCustomer", "events.CustomerCreated"}, f.log.calls)
}

func TestCreateCustomer_RegistryFailureStopsSequence(t *testing.T) {
	f := newFixture()
	f.customers.createErr = httperror.NewHTTPError(http.StatusConflict, "customer c1 already exists")

	err := f.service.CreateCustomer(context.Background(), &models.Customer{CustomerID: "c1", Name: "Alice"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))

	// the graph projection and the event must not run
	assert.Equal(t, []string{"customers.Create"}, f.log.calls)
}

func TestCreateCustomer_GraphFailureDoesNotRollBackRegistry(t *testing.T) {
	f := newFixture()
	f.social.ensureErr = httperror.NewHTTPError(http.StatusInternalServerError, "graph down")

	err := f.service.CreateCustomer(context.Background(), &models.Customer{CustomerID: "c1", Name: "Alice"})
	require.Error(t, err)

	// the registry write happened and stays; no delete call exists to undo it
	assert.Equal(t, []string{"customers.Create", "social.EnsureCustomer"}, f.log.calls)
}

func TestCreateProduct_EmitsAfterWrite(t *testing.T) {
	f := newFixture()

	err := f.service.CreateProduct(context.Background(), &models.Product{ProductID: 1, Name: "Widget", Stock: 5, Price: 9.99})
	require.NoError(t, err)

	assert.Equal(t, []string{"products.Create", "events.ProductCreated"}, f.log.calls)
}

func TestCreateFriendship_InvalidatesBothCustomers(t *testing.T) {
	f := newFixture()

	friendship, err := f.service.CreateFriendship(context.Background(), "c1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", friendship.CustomerName)
	assert.Equal(t, "Bob", friendship.FriendName)

	assert.Equal(t, []string{"social.CreateFriendship", "cache.Invalidate", "events.FriendshipCreated"}, f.log.calls)
	require.Len(t, f.cache.invalidated, 1)
	assert.ElementsMatch(t, []string{"c1", "c2"}, f.cache.invalidated[0])
}

func TestCreateFriendship_SelfFriendshipRejected(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateFriendship(context.Background(), "c1", "c1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	assert.Empty(t, f.log.calls)
}

func TestCreateFriendship_MissingCustomerPropagates(t *testing.T) {
	f := newFixture()
	f.social.friendshipErr = httperror.NewHTTPError(http.StatusNotFound, "one or both customers do not exist")

	_, err := f.service.CreateFriendship(context.Background(), "c1", "ghost")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	assert.Equal(t, []string{"social.CreateFriendship"}, f.log.calls)
}

func TestCreateFriendship_InvalidationFailurePropagates(t *testing.T) {
	f := newFixture()
	f.cache.invalidateErr = httperror.NewHTTPError(http.StatusInternalServerError, "redis down")

	_, err := f.service.CreateFriendship(context.Background(), "c1", "c2")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))

	// the event is not emitted when invalidation fails
	assert.Equal(t, []string{"social.CreateFriendship", "cache.Invalidate"}, f.log.calls)
}

func TestRegisterPurchase_InvalidatesOnlyThePurchaser(t *testing.T) {
	f := newFixture()

	purchase, err := f.service.RegisterPurchase(context.Background(), "c1", 42, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2001), purchase.PurchaseID)

	assert.Equal(t, []string{"customers.GetByID", "purchases.Register", "cache.Invalidate", "events.PurchaseRegistered"}, f.log.calls)
	require.Len(t, f.cache.invalidated, 1)
	assert.Equal(t, []string{"c1"}, f.cache.invalidated[0])
}

func TestRegisterPurchase_UnknownCustomerRejected(t *testing.T) {
	f := newFixture()
	f.customers.getErr = httperror.NewHTTPError(http.StatusNotFound, "customer ghost does not exist")

	_, err := f.service.RegisterPurchase(context.Background(), "ghost", 42, 1)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	assert.Equal(t, []string{"customers.GetByID"}, f.log.calls)
}

func TestRegisterPurchase_InsufficientStockPropagates(t *testing.T) {
	f := newFixture()
	f.purchases.registerErr = httperror.NewHTTPError(http.StatusBadRequest, "insufficient stock for product 42")

	_, err := f.service.RegisterPurchase(context.Background(), "c1", 42, 100)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	// no invalidation and no event for a failed purchase
	assert.Equal(t, []string{"customers.GetByID", "purchases.Register"}, f.log.calls)
}
