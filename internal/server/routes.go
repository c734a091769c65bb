package server

import (
	"github.com/arkiv-labs/dossier/backend/internal/server/middleware"
	"github.com/arkiv-labs/dossier/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Relationship-graph routes
	apiRoutes.GET("/persons/:id/network", routes.GetNetworkHandler)
	apiRoutes.GET("/persons/connection", routes.GetConnectionHandler)
	apiRoutes.GET("/persons/duplicates", routes.GetDuplicatesHandler)
	apiRoutes.POST("/persons/merge", routes.MergePersonsHandler)
}
