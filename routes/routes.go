package routes

import (
	"restoflow-api/handlers"
	"restoflow-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/health", h.Health)
	r.GET("/", h.Welcome)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/login", h.Login)
		public.POST("/auth/keypad", h.PressKey)
		public.POST("/auth/logout", h.Logout)
		public.GET("/auth/session", h.GetSession)

		// State machine info
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Session routes ─────────────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.SessionRequired(h.Gate))
	{
		// Menu grid and management
		auth.GET("/menu", h.ListMenu)
		auth.POST("/menu", h.AddMenuItem)
		auth.POST("/menu/seed", h.SeedMenu)
		auth.PUT("/menu/order", h.ReorderMenu)
		auth.GET("/menu/export", h.ExportMenu)
		auth.GET("/menu/:id", h.GetMenuItem)
		auth.PUT("/menu/:id", h.UpdateMenuItem)
		auth.DELETE("/menu/:id", h.DeleteMenuItem)

		// Cart panel
		auth.GET("/cart", h.GetCart)
		auth.DELETE("/cart", h.ClearCart)
		auth.POST("/cart/items", h.AddToCart)
		auth.DELETE("/cart/items/:cartId", h.RemoveFromCart)
		auth.PATCH("/cart/items/:cartId/quantity", h.ChangeQuantity)
		auth.PUT("/cart/items/:cartId/note", h.SetNote)
		auth.POST("/cart/submit", h.SubmitCart)

		// Kitchen board and order detail
		auth.GET("/orders", h.ListOrders)
		auth.GET("/orders/history", h.OrderHistory)
		auth.DELETE("/orders/completed", h.ClearCompleted)
		auth.GET("/orders/:id", h.GetOrder)
		auth.PUT("/orders/:id/advance", h.AdvanceOrder)
		auth.PUT("/orders/:id/revert", h.RevertOrder)
		auth.PUT("/orders/:id/status", h.UpdateOrderStatus)
		auth.GET("/kitchen/board", h.KitchenBoard)

		// Realtime invalidations
		auth.GET("/ws", h.Stream)
	}

	// ── Admin PIN routes ───────────────────────────────────────────
	admin := r.Group("/api/orders")
	admin.Use(middleware.SessionRequired(h.Gate), middleware.AdminPINRequired(h.AdminPIN))
	{
		admin.DELETE("", h.ResetOrders)
		admin.DELETE("/:id", h.DeleteOrder)
	}
}
