package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"restoflow-api/catalog"
	"restoflow-api/models"

	"github.com/gin-gonic/gin"
)

type CreateMenuItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Price       int64  `json:"price" binding:"min=0"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	IsAvailable *bool  `json:"is_available"`
}

type ReorderMenuRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// ListMenu returns the menu grid, optionally filtered by ?category=
func (h *Handler) ListMenu(c *gin.Context) {
	items := h.Menu.List(c.Query("category"))
	c.JSON(http.StatusOK, gin.H{
		"count":      len(items),
		"categories": h.Menu.Categories(),
		"menu":       items,
	})
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, found := h.Menu.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *Handler) AddMenuItem(c *gin.Context) {
	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.MenuItem{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	created, err := h.Menu.Add(c.Request.Context(), item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": created})
}

// UpdateMenuItem applies a partial edit; omitted fields keep their value
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch models.MenuItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Menu.Update(c.Request.Context(), id, patch); err != nil {
		respondError(c, err)
		return
	}
	item, _ := h.Menu.Get(id)
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Menu.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// SeedMenu loads the starter menu into an empty catalog
func (h *Handler) SeedMenu(c *gin.Context) {
	n, err := h.Menu.Seed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Starter menu added", "count": n})
}

// ReorderMenu saves the display order. Positions that fail are reported
// and the rest stay applied.
func (h *Handler) ReorderMenu(c *gin.Context) {
	var req ReorderMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Menu.Reorder(c.Request.Context(), req.IDs)
	var rErr *catalog.ReorderError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Menu order saved", "menu": h.Menu.List("")})
	case errors.As(err, &rErr):
		_ = c.Error(err)
		status := http.StatusMultiStatus
		if rErr.All() {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"error":  "Some positions could not be saved",
			"failed": rErr.Failed,
			"menu":   h.Menu.List(""),
		})
	default:
		respondError(c, err)
	}
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportMenu downloads the menu as an .xlsx sheet
func (h *Handler) ExportMenu(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Menu.ExportXLSX(&buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="menu.xlsx"`)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}
