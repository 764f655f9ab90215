package handlers

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/coordinator"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/repositories"
)

// CustomerHandler handles customer registry requests
type CustomerHandler struct {
	coordinator *coordinator.Service
	customers   repositories.CustomerRepo
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(coord *coordinator.Service, customers repositories.CustomerRepo) *CustomerHandler {
	return &CustomerHandler{
		coordinator: coord,
		customers:   customers,
	}
}

// CreateCustomerRequest is the request body for registering a customer
type CreateCustomerRequest struct {
	CustomerID  string  `json:"customer_id" validate:"required"`
	SecondaryID *string `json:"secondary_id,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Phone       string  `json:"phone" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	Address     *string `json:"address,omitempty"`
	BirthDate   *string `json:"birth_date,omitempty"`
}

// RegisterRoutes registers the customer routes
func (h *CustomerHandler) RegisterRoutes(g *echo.Group) {
	customers := g.Group("/customers")
	customers.POST("", h.Create)
	customers.GET("/:customer_id", h.Get)
}

// Create handles POST /customers
func (h *CustomerHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateCustomerRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	customer := &models.Customer{
		CustomerID:  req.CustomerID,
		SecondaryID: req.SecondaryID,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
	}

	if req.BirthDate != nil {
		birthDate, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid birth_date: must be YYYY-MM-DD")
		}
		customer.BirthDate = &birthDate
	}

	if err := h.coordinator.CreateCustomer(ctx, customer); err != nil {
		return err
	}

	return CreatedResponse(c, customer)
}

// Get handles GET /customers/:customer_id
func (h *CustomerHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := RequireParam(c, "customer_id")
	if err != nil {
		return err
	}

	customer, err := h.customers.GetByID(ctx, customerID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, customer)
}
