package handler

import (
	settingsapp "github.com/anycrm/backend/internal/application/settings"
	"github.com/gin-gonic/gin"
)

// SettingsHandler handles workspace settings API endpoints
type SettingsHandler struct {
	BaseHandler
	settingsService *settingsapp.Service
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *settingsapp.Service) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// Get godoc
// @ID           getSettings
// @Summary      Get workspace settings
// @Description  Retrieve the workspace settings. Secrets are masked: the API
// @Description  token is reduced to a hint and the agent key to a set flag.
// @Tags         settings
// @Produce      json
// @Success      200 {object} APIResponse[settingsapp.SettingsResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settings)
}

// Update godoc
// @ID           updateSettings
// @Summary      Update workspace settings
// @Description  Partially update the workspace settings. Omitted fields are
// @Description  left unchanged; an empty string clears the value.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request body settingsapp.UpdateSettingsRequest true "Settings update request"
// @Success      200 {object} APIResponse[settingsapp.SettingsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings [patch]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req settingsapp.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settings)
}
