package models

import "time"

// Purchase is an append-only ledger document. The id comes from an atomic
// sequence and the total is evaluated at purchase time, never re-derived.
type Purchase struct {
	PurchaseID  int64     `bson:"purchase_id" json:"purchase_id"`
	CustomerID  string    `bson:"customer_id" json:"customer_id"`
	ProductID   int64     `bson:"product_id" json:"product_id"`
	Quantity    int64     `bson:"quantity" json:"quantity"`
	Total       float64   `bson:"total" json:"total"`
	PurchasedAt time.Time `bson:"purchased_at" json:"purchased_at"`
}
