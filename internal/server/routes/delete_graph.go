package routes

import (
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// ClearGraphHandler empties the graph and flushes the empty image. The
// in-memory clear always happens; Persisted reports whether the flush made
// it to disk.
func ClearGraphHandler(c echo.Context) error {
	type clearResponse struct {
		Message   string `json:"message"`
		Persisted bool   `json:"persisted"`
	}

	app := c.(*middleware.AppContext).App
	persisted := app.Engine.Clear(c.Request().Context())

	return c.JSON(http.StatusOK, clearResponse{
		Message:   "Graph cleared",
		Persisted: persisted,
	})
}
