package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/grabtube/grabtube/internal/api/handlers"
	"github.com/grabtube/grabtube/internal/api/middleware"
	"github.com/grabtube/grabtube/internal/config"
)

type Router struct {
	engine *gin.Engine
	config *config.Config
}

func NewRouter(cfg *config.Config, videoHandler *handlers.VideoHandler, healthHandler *handlers.HealthHandler) *Router {
	// Set Gin mode
	if cfg.Server.Host == "0.0.0.0" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	if cfg.CORS.Enabled {
		engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	}

	// Health endpoints
	health := engine.Group("/")
	{
		health.GET("/health", healthHandler.Health)
		health.GET("/ready", healthHandler.Readiness)
		health.GET("/live", healthHandler.Liveness)
	}

	// Swagger documentation
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Download endpoints with rate limiting. The bare paths match what most
	// clients call; the /api prefix keeps older deployments working.
	rateLimited := engine.Group("/")
	rateLimited.Use(middleware.RateLimitMiddleware(&cfg.API))
	{
		rateLimited.POST("/video-info", videoHandler.VideoInfo)
		rateLimited.POST("/download", videoHandler.Download)

		api := rateLimited.Group("/api")
		{
			api.POST("/video-info", videoHandler.VideoInfo)
			api.POST("/download", videoHandler.Download)
		}
	}

	return &Router{
		engine: engine,
		config: cfg,
	}
}

func (r *Router) Start() error {
	addr := r.config.Server.Host + ":" + r.config.Server.Port
	return r.engine.Run(addr)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
