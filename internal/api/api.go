// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/optiflow/backend/internal/api/handlers"
	"github.com/optiflow/backend/internal/api/middleware"
	"github.com/optiflow/backend/internal/service"
)

func NewRouter(engine *service.EngineService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if engine != nil {
		forecastHandler := handlers.NewForecastHandler(engine)

		apiGroup.GET("/dashboard", forecastHandler.GetDashboard)
		apiGroup.GET("/alerts", forecastHandler.GetAlerts)
		apiGroup.GET("/performance", forecastHandler.GetPerformance)

		productGroup := apiGroup.Group("/products")
		{
			productGroup.GET("/:id", forecastHandler.GetProductDetail)
			productGroup.POST("/:id/train", forecastHandler.TrainProduct)
			productGroup.POST("/:id/forecast", forecastHandler.ForecastProduct)
		}

		modelGroup := apiGroup.Group("/models")
		{
			modelGroup.POST("/train", forecastHandler.TrainAll)
			modelGroup.POST("/forecast", forecastHandler.ForecastAll)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
