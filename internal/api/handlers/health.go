package handlers

import (
	"net/http"
	"os/exec"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/services/ffmpeg"
)

type HealthHandler struct {
	cfg  *config.Config
	tool *ffmpeg.Tool
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Version   string                   `json:"version"`
	Strategy  string                   `json:"strategy"`
	Services  map[string]ServiceHealth `json:"services"`
}

type ServiceHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func NewHealthHandler(cfg *config.Config, tool *ffmpeg.Tool) *HealthHandler {
	return &HealthHandler{
		cfg:  cfg,
		tool: tool,
	}
}

// Health godoc
// @Summary Health check endpoint
// @Description Check the health of the service and its external tools
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   "1.0.0",
		Strategy:  h.cfg.Provider.Strategy,
		Services:  make(map[string]ServiceHealth),
	}

	if h.cfg.Provider.Strategy == config.StrategyYtdlp {
		response.Services["yt-dlp"] = h.checkYtdlp()
	}
	response.Services["ffmpeg"] = h.checkFfmpeg()

	// ffmpeg is optional for every strategy, so only a missing yt-dlp binary
	// degrades the overall status.
	if yt, ok := response.Services["yt-dlp"]; ok && yt.Status != "healthy" {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Readiness godoc
// @Summary Readiness check endpoint
// @Description Check if the service is ready to accept requests
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ready := true
	checks := make(map[string]interface{})

	if h.cfg.Provider.Strategy == config.StrategyYtdlp {
		if _, err := exec.LookPath(h.cfg.Download.YtdlpPath); err != nil {
			ready = false
			checks["yt-dlp"] = map[string]interface{}{
				"ready": false,
				"error": err.Error(),
			}
		} else {
			checks["yt-dlp"] = map[string]interface{}{
				"ready": true,
			}
		}
	}

	if h.cfg.Provider.Strategy == config.StrategyRapidAPI && h.cfg.Provider.RapidAPIKey == "" {
		ready = false
		checks["rapidapi"] = map[string]interface{}{
			"ready": false,
			"error": "RAPIDAPI_KEY is not set",
		}
	}

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	if ready {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// Liveness godoc
// @Summary Liveness check endpoint
// @Description Check if the service is alive
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /live [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkYtdlp() ServiceHealth {
	if _, err := exec.LookPath(h.cfg.Download.YtdlpPath); err != nil {
		return ServiceHealth{
			Status: "unhealthy",
			Error:  err.Error(),
		}
	}
	return ServiceHealth{Status: "healthy"}
}

func (h *HealthHandler) checkFfmpeg() ServiceHealth {
	if !h.tool.Available() {
		return ServiceHealth{
			Status: "degraded",
			Error:  "ffmpeg binary not found",
		}
	}
	return ServiceHealth{Status: "healthy"}
}
