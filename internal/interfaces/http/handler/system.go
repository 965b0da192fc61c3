package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medico/backend/internal/interfaces/http/dto"
)

// HealthCheck probes one dependency; a nil error means healthy
type HealthCheck func(ctx context.Context) error

// SystemHandler serves the banner, health and post-checkout redirect endpoints
type SystemHandler struct {
	name        string
	version     string
	frontendURL string
	checks      map[string]HealthCheck
	startTime   time.Time
}

// NewSystemHandler creates a new SystemHandler. frontendURL is where /success and /cancel land.
func NewSystemHandler(name, version, frontendURL string) *SystemHandler {
	return &SystemHandler{
		name:        name,
		version:     version,
		frontendURL: frontendURL,
		checks:      make(map[string]HealthCheck),
		startTime:   time.Now(),
	}
}

// AddCheck registers a dependency probe reported by /health
func (h *SystemHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse reports overall and per-dependency health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Root godoc
// @Summary      Service name
// @Description  Plain text service banner
// @Tags         system
// @Produce      plain
// @Success      200 {string} string "Medico"
// @Router       / [get]
func (h *SystemHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Medico")
}

// Health godoc
// @Summary      Health check
// @Description  Report dependency checks; any failing check makes it 503
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(names))
		}
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	c.JSON(status, resp)
}

// Info godoc
// @Summary      Get system information
// @Description  Returns the service name, version and environment
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /api/v1/system/info [get]
func (h *SystemHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}

// CheckoutSuccess godoc
// @Summary      Checkout success return
// @Description  Redirect a returning customer to the storefront
// @Tags         checkout
// @Produce      html
// @Success      302
// @Router       /success [get]
func (h *SystemHandler) CheckoutSuccess(c *gin.Context) {
	c.Redirect(http.StatusFound, h.frontendURL)
}

// CheckoutCancel godoc
// @Summary      Checkout cancel return
// @Description  Redirect a customer who abandoned checkout to the storefront
// @Tags         checkout
// @Produce      html
// @Success      302
// @Router       /cancel [get]
func (h *SystemHandler) CheckoutCancel(c *gin.Context) {
	c.Redirect(http.StatusFound, h.frontendURL)
}
