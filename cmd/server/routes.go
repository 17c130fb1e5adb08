package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/tetherlabs/authgw/api/rest/auth"
	"codeberg.org/tetherlabs/authgw/api/rest/health"
	"codeberg.org/tetherlabs/authgw/internal/metrics"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware(server.config))
	router.Use(metrics.GinMiddleware())

	router.GET("/health", health.Handler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		auth.RegisterRoutes(v1, server.authService, server.config)
	}
}
