package models

// Product is a catalog document. Stock must never be observed negative; the
// ledger only ever decrements it with a conditional atomic update.
type Product struct {
	ProductID int64   `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Stock     int64   `bson:"stock" json:"stock"`
	Price     float64 `bson:"price" json:"price"`
}
