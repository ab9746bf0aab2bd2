package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeleteOrder removes one order for good. Admin PIN only.
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted", "order_id": id})
}

// ResetOrders wipes every order and restarts numbering at 1. Admin PIN only.
func (h *Handler) ResetOrders(c *gin.Context) {
	if err := h.Orders.ResetAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All orders deleted, numbering restarts at 1"})
}
