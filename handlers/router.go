package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"picstego/config"
	"picstego/metrics"
	"picstego/middleware"
)

// NewRouter mounts every route. m may be nil to disable /metrics.
func NewRouter(cfg config.Config, h *StegoHandler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(logger), middleware.Recovery(logger))
	if m != nil {
		router.Use(m.Middleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{
		"X-Stego-PSNR", "X-Stego-Message", "X-Stego-Capacity", "X-Stego-Bits", "X-Stego-Method",
		"Content-Disposition", middleware.RequestIDHeader,
	}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// API Routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/capacity", h.Capacity)
			stego.POST("/embed", h.EmbedMessage)
			stego.POST("/extract", h.ExtractMessage)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.POST("/:id/message", h.SessionMessage)
			sessions.DELETE("/:id", h.DeleteSession)
		}

		api.GET("/covers/random", h.RandomCover)
	}

	return router
}
