package models

import "time"

// Customer is the registry row for a customer. The registry is the source of
// truth; the social graph holds a mirrored node keyed by the same id.
type Customer struct {
	CustomerID  string     `db:"customer_id" json:"customer_id"`
	SecondaryID *string    `db:"secondary_id" json:"secondary_id,omitempty"`
	Name        string     `db:"name" json:"name"`
	Phone       string     `db:"phone" json:"phone"`
	Email       string     `db:"email" json:"email"`
	Address     *string    `db:"address" json:"address,omitempty"`
	BirthDate   *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// TableName returns the database table name
func (Customer) TableName() string {
	return "customers"
}
