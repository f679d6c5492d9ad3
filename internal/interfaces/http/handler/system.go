package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DatabasePinger checks connectivity to the backing database
type DatabasePinger interface {
	Ping() error
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	db        DatabasePinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. The pinger may be nil, in
// which case the health check skips the database probe.
func NewSystemHandler(db DatabasePinger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Database  string `json:"database,omitempty" example:"ok"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Description  Returns service health, version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "error"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}
	c.JSON(http.StatusOK, resp)
}

// ListIndustries godoc
// @ID           listIndustries
// @Summary      List known industries
// @Description  Returns the accepted industry values in display order
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[[]string]
// @Security     BearerAuth
// @Router       /industries [get]
func (h *SystemHandler) ListIndustries(c *gin.Context) {
	industries := crm.AllIndustries()
	values := make([]string, len(industries))
	for i, industry := range industries {
		values[i] = string(industry)
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(values))
}
