package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/opstudy/internal/usecase"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	AllowedOrigins []string // empty allows all origins
	JWTSecret      string   // empty disables bearer auth on /v1
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(studyUC *usecase.StudyUseCase, results *ResultStore, cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("Authorization")
	corsConfig.AddExposeHeaders("Content-Disposition")
	router.Use(cors.New(corsConfig))

	handler := NewHandler(studyUC, results)

	// API v1 routes.
	v1 := router.Group("/v1")
	if cfg.JWTSecret != "" {
		v1.Use(BearerAuth(cfg.JWTSecret))
	}

	// Selection form data.
	v1.GET("/airports", handler.GetAirports)
	v1.GET("/airports/:icao/runways", handler.GetRunways)

	// Studies.
	v1.POST("/studies", handler.CreateStudy)
	v1.GET("/studies/:id/download", handler.DownloadStudy)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
