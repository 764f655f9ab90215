package handlers

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/coordinator"
)

// FriendshipHandler handles social graph requests
type FriendshipHandler struct {
	coordinator *coordinator.Service
}

// NewFriendshipHandler creates a new friendship handler
func NewFriendshipHandler(coord *coordinator.Service) *FriendshipHandler {
	return &FriendshipHandler{
		coordinator: coord,
	}
}

// CreateFriendshipRequest is the request body for linking two customers
type CreateFriendshipRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	FriendID   string `json:"friend_id" validate:"required"`
}

// FriendshipResponse reports the linked customers by name
type FriendshipResponse struct {
	Message      string `json:"message"`
	CustomerName string `json:"customer_name"`
	FriendName   string `json:"friend_name"`
}

// RegisterRoutes registers the friendship routes
func (h *FriendshipHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/friendships", h.Create)
}

// Create handles POST /friendships
func (h *FriendshipHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateFriendshipRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	friendship, err := h.coordinator.CreateFriendship(ctx, req.CustomerID, req.FriendID)
	if err != nil {
		return err
	}

	return CreatedResponse(c, FriendshipResponse{
		Message:      fmt.Sprintf("%s is now friends with %s", friendship.CustomerName, friendship.FriendName),
		CustomerName: friendship.CustomerName,
		FriendName:   friendship.FriendName,
	})
}
