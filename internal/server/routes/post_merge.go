package routes

import (
	"net/http"

	"github.com/arkiv-labs/dossier/backend/internal/server/middleware"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func MergePersonsHandler(c echo.Context) error {
	type mergeRequest struct {
		PrimaryID    int64   `json:"primary_id" validate:"required"`
		DuplicateIDs []int64 `json:"duplicate_ids" validate:"required,min=1"`
	}

	var req mergeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	app := c.(*middleware.AppContext).App
	result, err := app.Engine.MergePersons(c.Request().Context(), req.PrimaryID, req.DuplicateIDs)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}
