package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/coordinator"
	"github.com/Ramsey-B/clover/pkg/documents"
	"github.com/Ramsey-B/clover/pkg/models"
)

// ProductHandler handles catalog requests
type ProductHandler struct {
	coordinator *coordinator.Service
	products    documents.ProductStore
}

// NewProductHandler creates a new product handler
func NewProductHandler(coord *coordinator.Service, products documents.ProductStore) *ProductHandler {
	return &ProductHandler{
		coordinator: coord,
		products:    products,
	}
}

// CreateProductRequest is the request body for adding a product
type CreateProductRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Name      string  `json:"name" validate:"required"`
	Stock     int64   `json:"stock" validate:"gte=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// RegisterRoutes registers the product routes
func (h *ProductHandler) RegisterRoutes(g *echo.Group) {
	products := g.Group("/products")
	products.POST("", h.Create)
	products.GET("/:product_id", h.Get)
}

// Create handles POST /products
func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateProductRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	product := &models.Product{
		ProductID: req.ProductID,
		Name:      req.Name,
		Stock:     req.Stock,
		Price:     req.Price,
	}

	if err := h.coordinator.CreateProduct(ctx, product); err != nil {
		return err
	}

	return CreatedResponse(c, product)
}

// Get handles GET /products/:product_id
func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := ParseInt64Param(c, "product_id")
	if err != nil {
		return err
	}

	product, err := h.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, product)
}
