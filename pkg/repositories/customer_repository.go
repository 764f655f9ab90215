package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const customersTable = "customers"

// uniqueViolation is the postgres error code for a duplicate key
const uniqueViolation = pq.ErrorCode("23505")

var customerStruct = database.NewStruct(new(models.Customer))

// CustomerRepo is the registry contract consumed by the coordinator
type CustomerRepo interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, customerID string) (*models.Customer, error)
}

// CustomerRepository is the authoritative store of customer identity
type CustomerRepository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db database.DB, logger ectologger.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the customer row exactly once. A duplicate id is reported
// by the store's unique constraint, never by a separate existence check.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	ctx, span := tracing.StartSpan(ctx, "CustomerRepository.Create")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(customersTable).
		Cols("customer_id", "secondary_id", "name", "phone", "email", "address", "birth_date").
		Values(customer.CustomerID, customer.SecondaryID, customer.Name, customer.Phone, customer.Email, customer.Address, customer.BirthDate).
		Returning("created_at")

	query, args := ib.Build()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&customer.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return httperror.NewHTTPErrorf(http.StatusConflict, "customer %s already exists", customer.CustomerID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customer.CustomerID,
		}).Error("failed to create customer")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create customer")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"customer_id": customer.CustomerID,
	}).Debugf("Created %s", customersTable)
	return nil
}

// GetByID retrieves a customer by id
func (r *CustomerRepository) GetByID(ctx context.Context, customerID string) (*models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "CustomerRepository.GetByID")
	defer span.End()

	sb := customerStruct.SelectFrom(customersTable)
	sb.Where(sb.Equal("customer_id", customerID))

	query, args := sb.Build()
	var customer models.Customer
	err := r.db.GetContext(ctx, &customer, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "customer %s does not exist", customerID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
		}).Error("failed to get customer by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get customer by ID")
	}

	return &customer, nil
}
