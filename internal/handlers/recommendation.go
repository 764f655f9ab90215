package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/recommendation"
)

// RecommendationHandler serves friend-based product recommendations
type RecommendationHandler struct {
	recommendations *recommendation.Service
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommendations *recommendation.Service) *RecommendationHandler {
	return &RecommendationHandler{
		recommendations: recommendations,
	}
}

// RecommendationResponse is the recommendation list for a customer
type RecommendationResponse struct {
	CustomerID      string           `json:"customer_id"`
	Recommendations []models.Product `json:"recommendations"`
}

// RegisterRoutes registers the recommendation routes
func (h *RecommendationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/recommendations/:customer_id", h.Get)
}

// Get handles GET /recommendations/:customer_id
func (h *RecommendationHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := RequireParam(c, "customer_id")
	if err != nil {
		return err
	}

	products, err := h.recommendations.Recommend(ctx, customerID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, RecommendationResponse{
		CustomerID:      customerID,
		Recommendations: products,
	})
}
