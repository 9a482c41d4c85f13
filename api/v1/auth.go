package v1

import (
	"net/http"

	"github.com/clientdesk-api/dto"
	"github.com/clientdesk-api/middleware"
	"github.com/gin-gonic/gin"
)

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest

	// Parse request body
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "User registered successfully",
		"data":    user,
	})
}

// Login handles user authentication
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest

	// Parse request body
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	authResponse, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Set token as HttpOnly cookie
	c.SetCookie(
		middleware.AccessTokenCookie,
		authResponse.Token,
		int(h.TokenTTL.Seconds()),
		"/",
		"",
		h.SecureCookies,
		true,
	)

	// Also return token in response body for clients that prefer Bearer auth
	respondOK(c, http.StatusOK, authResponse)
}

// Logout handles user logout
func (h *Handler) Logout(c *gin.Context) {
	// Clear the cookie by setting max-age to -1 (expired)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.SecureCookies, true)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the currently authenticated user's profile
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, user)
}
