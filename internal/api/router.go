package api

import (
	"time"

	"pickup-trip-service/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// NewRouter wires HTTP handlers with their dependencies.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(service handlers.TripPlanService, planTimeout time.Duration) *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	router.Use(accessLog())
	router.Use(gin.Recovery())

	planHandler := &handlers.PlanHandler{Service: service}

	router.GET("/health", handlers.Health)
	router.POST("/plans", timeout(planTimeout), planHandler.Plan)

	return router
}
