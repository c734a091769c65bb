package middleware

import (
	"github.com/arkiv-labs/dossier/backend/pkg/engine"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// App holds the shared dependencies handlers reach through the request
// context.
type App struct {
	DBConn *pgxpool.Pool
	Engine *engine.Engine
	APIKey string
}

// AppContext wraps the echo context with the application dependencies.
type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
