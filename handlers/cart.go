package handlers

import (
	"errors"
	"net/http"

	"restoflow-api/cart"
	"restoflow-api/middleware"

	"github.com/gin-gonic/gin"
)

type AddToCartRequest struct {
	ItemID uint   `json:"item_id" binding:"required"`
	Note   string `json:"note"`
}

type ChangeQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type SetNoteRequest struct {
	Note string `json:"note"`
}

type SubmitCartRequest struct {
	CustomerName string `json:"customer_name" binding:"required"`
	GlobalNote   string `json:"global_note"`
}

func (h *Handler) cartFor(c *gin.Context) *cart.Cart {
	return h.Carts.For(middleware.GetSession(c).SessionID)
}

func cartView(ct *cart.Cart) gin.H {
	return gin.H{
		"items": ct.Lines(),
		"count": ct.Len(),
		"total": ct.Total(),
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cart": cartView(h.cartFor(c))})
}

// AddToCart adds one unit of a menu item. Without a note, repeat taps merge
// into the plain line of the same item.
func (h *Handler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, ok := h.Menu.Get(req.ItemID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	if !item.IsAvailable {
		c.JSON(http.StatusBadRequest, gin.H{"error": item.Name + " is not available right now"})
		return
	}

	ct := h.cartFor(c)
	line := ct.AddWithNote(item, req.Note)
	c.JSON(http.StatusOK, gin.H{"line": line, "cart": cartView(ct)})
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	ct := h.cartFor(c)
	if err := ct.Remove(c.Param("cartId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cartView(ct)})
}

// ChangeQuantity applies a delta; quantity never drops below one
func (h *Handler) ChangeQuantity(c *gin.Context) {
	var req ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ct := h.cartFor(c)
	line, err := ct.ChangeQuantity(c.Param("cartId"), req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "cart": cartView(ct)})
}

func (h *Handler) SetNote(c *gin.Context) {
	var req SetNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ct := h.cartFor(c)
	line, err := ct.SetNote(c.Param("cartId"), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "cart": cartView(ct)})
}

// ClearCart empties the cart panel
func (h *Handler) ClearCart(c *gin.Context) {
	ct := h.cartFor(c)
	ct.Clear()
	c.JSON(http.StatusOK, gin.H{"cart": cartView(ct)})
}

// SubmitCart places the cart as an order. On failure the cart is kept so
// the cashier can retry.
func (h *Handler) SubmitCart(c *gin.Context) {
	var req SubmitCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ct := h.cartFor(c)
	order, err := ct.Submit(c.Request.Context(), h.Orders, req.CustomerName, req.GlobalNote)
	if errors.Is(err, cart.ErrNothingToSubmit) || errors.Is(err, cart.ErrSubmitInFlight) {
		respondError(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to submit order, the cart was kept: " + err.Error(),
			"cart":  cartView(ct),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed",
		"order":   order,
		"cart":    cartView(ct),
	})
}
