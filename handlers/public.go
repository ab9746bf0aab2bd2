package handlers

import (
	"net/http"

	"restoflow-api/models"
	"restoflow-api/statemachine"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "RestoFlow POS & Kitchen API",
		"version":       "1.0.0",
		"orders_loaded": h.Orders.Loaded(),
		"menu_loaded":   h.Menu.Loaded(),
	})
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the RestoFlow POS & Kitchen API",
		"docs":    "/api/state-machine",
		"health":  "/health",
		"login":   "/api/auth/login",
	})
}

// GetStateMachineInfo returns the kitchen lifecycle for documentation
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":  statemachine.GetAllTransitions(),
		"statuses":       models.Statuses,
		"initial_state":  models.StatusProcessing,
		"direct_updates": "PUT /api/orders/:id/status accepts any status, adjacent or not",
		"description":    "Kitchen Order Lifecycle State Machine",
	})
}
