package routes

import (
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SaveGraphHandler flushes the in-memory graph to its on-disk image.
func SaveGraphHandler(c echo.Context) error {
	type saveResponse struct {
		Message   string `json:"message"`
		Persisted bool   `json:"persisted"`
	}

	app := c.(*middleware.AppContext).App
	if err := app.Engine.Save(c.Request().Context()); err != nil {
		logger.Error("Failed to save graph", "err", err)
		return c.JSON(http.StatusInternalServerError, saveResponse{
			Message:   "Failed to save graph",
			Persisted: false,
		})
	}

	return c.JSON(http.StatusOK, saveResponse{
		Message:   "Graph saved",
		Persisted: true,
	})
}
