package routes

import (
	"net/http"
	"strconv"

	"github.com/arkiv-labs/dossier/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

const defaultSimilarityThreshold = 0.85

func GetDuplicatesHandler(c echo.Context) error {
	threshold := defaultSimilarityThreshold
	if raw := c.QueryParam("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid threshold"})
		}
		threshold = parsed
	}

	app := c.(*middleware.AppContext).App
	groups, err := app.Engine.FindDuplicates(c.Request().Context(), threshold)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(http.StatusOK, groups)
}
