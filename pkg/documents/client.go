// Package documents provides the MongoDB catalog and purchase ledger stores
package documents

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection  = "products"
	purchasesCollection = "purchases"
	countersCollection  = "counters"

	// purchaseCounterID is the _id of the singleton purchase id counter
	purchaseCounterID = "purchases"

	// purchaseSequenceSeed is the value the counter starts from so the
	// first issued purchase id is purchaseSequenceSeed + 1
	purchaseSequenceSeed = 2000
)

// Client wraps the mongo client and the application database
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	logger   ectologger.Logger
}

// NewClient connects to MongoDB and prepares the collections the stores
// depend on: the unique product index and the purchase id counter.
func NewClient(ctx context.Context, uri string, databaseName string, logger ectologger.Logger) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	c := &Client{
		client:   client,
		database: client.Database(databaseName),
		logger:   logger,
	}

	if err := c.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	if err := c.ensurePurchaseCounter(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// Close disconnects the underlying client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Ping checks connectivity to the primary
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Collection returns a handle in the application database
func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

// WithTransaction runs fn inside a mongo session transaction
func (c *Client) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) (any, error)) (any, error) {
	session, err := c.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, fn)
}

// ensureIndexes creates the unique index that guards product ids. Insert
// races resolve at the store instead of a read-then-write check.
func (c *Client) ensureIndexes(ctx context.Context) error {
	_, err := c.Collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create product index: %w", err)
	}

	_, err = c.Collection(purchasesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "purchase_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create purchase index: %w", err)
	}

	return nil
}

// ensurePurchaseCounter seeds the purchase id counter if it is absent.
// $setOnInsert keeps an existing counter untouched across restarts.
func (c *Client) ensurePurchaseCounter(ctx context.Context) error {
	_, err := c.Collection(countersCollection).UpdateOne(ctx,
		bson.M{"_id": purchaseCounterID},
		bson.M{"$setOnInsert": bson.M{"seq": int64(purchaseSequenceSeed)}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to seed purchase counter: %w", err)
	}
	return nil
}
