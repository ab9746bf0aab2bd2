package handlers

import (
	"context"
	"net/http"

	"restoflow-api/models"
	"restoflow-api/statemachine"

	"github.com/gin-gonic/gin"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders returns active and completed orders, oldest first. ?status=
// narrows to one bucket.
func (h *Handler) ListOrders(c *gin.Context) {
	var orders []models.Order
	if raw := c.Query("status"); raw != "" {
		status, err := statemachine.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		orders = h.Orders.Queue(status)
	} else {
		orders = h.Orders.Orders()
	}

	summary := map[string]int{}
	for _, o := range h.Orders.Orders() {
		summary[string(o.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

// OrderHistory returns completed orders, newest first
func (h *Handler) OrderHistory(c *gin.Context) {
	history := h.Orders.History()
	var revenue int64
	for _, o := range history {
		revenue += o.Total
	}
	c.JSON(http.StatusOK, gin.H{
		"count":         len(history),
		"total_revenue": revenue,
		"orders":        history,
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, found := h.Orders.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"valid_transitions": statemachine.ValidTransitionsFrom(order.Status),
	})
}

// KitchenBoard returns the three Kanban columns with per-item totals
func (h *Handler) KitchenBoard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"columns": h.Orders.Board()})
}

func (h *Handler) AdvanceOrder(c *gin.Context) {
	h.transition(c, h.Orders.Advance)
}

func (h *Handler) RevertOrder(c *gin.Context) {
	h.transition(c, h.Orders.Revert)
}

func (h *Handler) transition(c *gin.Context, move func(context.Context, uint) (models.Order, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	before, found := h.Orders.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	order, err := move(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status updated",
		"previous_status": before.Status,
		"new_status":      order.Status,
		"order":           order,
	})
}

// UpdateOrderStatus writes any status, adjacent or not
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := statemachine.Parse(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	before, found := h.Orders.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	order, err := h.Orders.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status updated",
		"previous_status": before.Status,
		"new_status":      order.Status,
		"order":           order,
	})
}

// ClearCompleted removes every Done order from the history
func (h *Handler) ClearCompleted(c *gin.Context) {
	n, err := h.Orders.ClearCompleted(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Completed orders cleared", "count": n})
}
