package handler

import (
	settingsapp "github.com/anycrm/backend/internal/application/settings"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication API endpoints
type AuthHandler struct {
	BaseHandler
	settingsService *settingsapp.Service
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(settingsService *settingsapp.Service) *AuthHandler {
	return &AuthHandler{
		settingsService: settingsService,
	}
}

// Login godoc
// @ID           login
// @Summary      Log in with the admin password
// @Description  Exchange the admin password for a short-lived session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body settingsapp.LoginRequest true "Login request"
// @Success      200 {object} APIResponse[settingsapp.LoginResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req settingsapp.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	session, err := h.settingsService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}
