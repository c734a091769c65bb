package routes

import (
	"errors"
	"net/http"

	"github.com/arkiv-labs/dossier/backend/pkg/engine"

	"github.com/labstack/echo/v4"
)

// engineError translates the engine taxonomy into an HTTP response. A
// NotFoundError includes the offending id so the UI can re-present a
// corrected choice.
func engineError(c echo.Context, err error) error {
	var notFound *engine.NotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error":     notFound.Error(),
			"person_id": notFound.ID,
		})
	}

	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrMergeConflict):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "store unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
