package routes

import (
	"net/http"
	"strconv"

	"github.com/arkiv-labs/dossier/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

const defaultPathDepth = 6

func GetConnectionHandler(c echo.Context) error {
	fromID, err := strconv.ParseInt(c.QueryParam("from"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid 'from' person id"})
	}
	toID, err := strconv.ParseInt(c.QueryParam("to"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid 'to' person id"})
	}

	maxDepth := defaultPathDepth
	if raw := c.QueryParam("max_depth"); raw != "" {
		maxDepth, err = strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid max_depth"})
		}
	}

	app := c.(*middleware.AppContext).App
	path, err := app.Engine.FindPath(c.Request().Context(), fromID, toID, maxDepth)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(http.StatusOK, path)
}
