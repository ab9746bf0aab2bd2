package handlers

import (
	"errors"
	"net/http"

	"restoflow-api/middleware"
	"restoflow-api/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoginRequest struct {
	PIN string `json:"pin" binding:"required,pin"`
}

// Login checks the staff PIN and starts a session
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be exactly 4 digits"})
		return
	}

	store := middleware.NewCookieStore(c, h.Gate.TTL())
	marker, err := h.Gate.Login(store, req.PIN)
	if errors.Is(err, session.ErrIncorrectPIN) || errors.Is(err, session.ErrMalformedPIN) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect PIN"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      store.Token(),
		"expires_at": h.Gate.ExpiresAt(marker),
	})
}

type KeypadRequest struct {
	Key string `json:"key" binding:"required"`
}

// PressKey drives the login screen's keypad one key at a time. Key is a
// digit or "back". The fourth digit is checked at once; a match starts the
// session the same way Login does.
func (h *Handler) PressKey(c *gin.Context) {
	var req KeypadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	isDigit := len(req.Key) == 1 && req.Key[0] >= '0' && req.Key[0] <= '9'
	if !isDigit && req.Key != "back" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Key must be a digit or back"})
		return
	}

	padID, err := c.Cookie(middleware.KeypadCookie)
	if err != nil || padID == "" {
		padID = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.KeypadCookie, padID, int(session.KeypadIdle.Seconds()), "/", "", false, true)
	}
	pad := h.Keypads.For(padID)

	result := session.Pending
	if req.Key == "back" {
		pad.Backspace()
	} else {
		store := middleware.NewCookieStore(c, h.Gate.TTL())
		var marker session.Marker
		result, marker, err = h.Gate.Press(store, pad, req.Key[0])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			return
		}
		if result == session.Accepted {
			h.Keypads.Drop(padID)
			c.SetCookie(middleware.KeypadCookie, "", -1, "/", "", false, true)
			c.JSON(http.StatusOK, gin.H{
				"message":    "Login successful",
				"result":     result.String(),
				"token":      store.Token(),
				"expires_at": h.Gate.ExpiresAt(marker),
			})
			return
		}
	}

	entered, errored := pad.Entered()
	c.JSON(http.StatusOK, gin.H{
		"result":  result.String(),
		"entered": entered,
		"error":   errored,
	})
}

// Logout ends the session and discards its cart
func (h *Handler) Logout(c *gin.Context) {
	store := middleware.NewCookieStore(c, h.Gate.TTL())
	if state, marker := h.Gate.Resume(store); state == session.Authenticated {
		h.Carts.Drop(marker.SessionID)
	}
	h.Gate.Logout(store)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetSession reports whether the caller is logged in and until when
func (h *Handler) GetSession(c *gin.Context) {
	state, marker := h.Gate.Resume(middleware.NewCookieStore(c, h.Gate.TTL()))
	if state != session.Authenticated {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "state": state.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"state":         state.String(),
		"logged_in_at":  marker.LoginTime(),
		"expires_at":    h.Gate.ExpiresAt(marker),
	})
}
