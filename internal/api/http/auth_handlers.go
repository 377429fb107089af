package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/DigitalTwin/internal/api/middleware"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/auth"
)

// Login exchanges form credentials for a bearer token
func (h *Handlers) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	token, user, err := h.auth.Login(c.Request.Context(), username, password)
	if err != nil {
		h.recordLogin("failure")
		h.respondError(c, err)
		return
	}
	h.recordLogin("success")

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.auth.TokenTTL().Seconds()),
		"user":         user,
	})
}

func (h *Handlers) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}

// RegisterUser creates a user or admin account
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me returns the authenticated account
func (h *Handlers) Me(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	resp := gin.H{"user": user}
	if sess, ok := h.auth.Session(middleware.Token(c)); ok {
		resp["expires_at"] = sess.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

// Logout revokes the request's token and ends the user's desktop session
func (h *Handlers) Logout(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	if ctrl, ok := h.desktops.Get(user.ID); ok {
		if err := ctrl.Logout(c.Request.Context()); err != nil {
			h.respondError(c, err)
			return
		}
		h.desktops.Remove(user.ID)
	}
	h.auth.Logout(middleware.Token(c))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
