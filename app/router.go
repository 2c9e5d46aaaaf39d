// Package app wires the engine layer behind shared HTTP routes.
package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP router over an already started engine service.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", Health)

	api := router.Group("/api")
	api.POST("/move", h.PostMove)
	api.POST("/evaluate", h.PostEvaluate)
	api.POST("/topmoves", h.PostTopMoves)
	api.POST("/analyze", h.PostAnalyze)

	return router
}
