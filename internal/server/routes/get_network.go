package routes

import (
	"net/http"
	"strconv"

	"github.com/arkiv-labs/dossier/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

const defaultNetworkDepth = 2

func GetNetworkHandler(c echo.Context) error {
	personID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid person id"})
	}

	depth := defaultNetworkDepth
	if raw := c.QueryParam("depth"); raw != "" {
		depth, err = strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid depth"})
		}
	}

	app := c.(*middleware.AppContext).App
	graph, err := app.Engine.BuildNetwork(c.Request().Context(), personID, depth)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(http.StatusOK, graph)
}
