package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/coordinator"
	"github.com/Ramsey-B/clover/pkg/documents"
)

// PurchaseHandler handles ledger requests
type PurchaseHandler struct {
	coordinator *coordinator.Service
	purchases   documents.PurchaseStore
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(coord *coordinator.Service, purchases documents.PurchaseStore) *PurchaseHandler {
	return &PurchaseHandler{
		coordinator: coord,
		purchases:   purchases,
	}
}

// CreatePurchaseRequest is the request body for registering a purchase
type CreatePurchaseRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
}

// RegisterRoutes registers the purchase routes
func (h *PurchaseHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/purchases", h.Create)
	g.GET("/customers/:customer_id/purchases", h.ListByCustomer)
}

// Create handles POST /purchases
func (h *PurchaseHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreatePurchaseRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	purchase, err := h.coordinator.RegisterPurchase(ctx, req.CustomerID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	return CreatedResponse(c, purchase)
}

// ListByCustomer handles GET /customers/:customer_id/purchases
func (h *PurchaseHandler) ListByCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := RequireParam(c, "customer_id")
	if err != nil {
		return err
	}

	purchases, err := h.purchases.ListByCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, purchases)
}
