// Package handlers exposes the till, kitchen board and menu management over
// HTTP. All state lives in the stores held by Handler.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"restoflow-api/cart"
	"restoflow-api/catalog"
	"restoflow-api/feed"
	"restoflow-api/orderbook"
	"restoflow-api/session"
	"restoflow-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Handler is the application state shared by every route
type Handler struct {
	Menu     *catalog.Catalog
	Orders   *orderbook.Book
	Carts    *cart.Registry
	Gate     *session.Gate
	Keypads  *session.Keypads
	AdminPIN *session.PIN
	Feed     feed.Broker
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

// respondError maps store and domain errors onto status codes
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var mErr *orderbook.MutationError
	switch {
	case errors.Is(err, orderbook.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, catalog.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
	case errors.Is(err, cart.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart line not found"})
	case errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, cart.ErrNothingToSubmit),
		errors.Is(err, statemachine.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrAlreadySeeded):
		c.JSON(http.StatusConflict, gin.H{"error": "Menu already has items, nothing was seeded"})
	case errors.Is(err, cart.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Order is still being submitted, try again in a moment"})
	case errors.As(err, &mErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":       "Failed to save change: " + mErr.Err.Error(),
			"rolled_back": true,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
