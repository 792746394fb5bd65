package routes

import (
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/query"

	"github.com/labstack/echo/v4"
)

// GetStatisticsHandler returns graph counters, histograms and density.
func GetStatisticsHandler(c echo.Context) error {
	type statisticsResponse struct {
		Message    string            `json:"message"`
		Statistics *query.Statistics `json:"statistics,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	return c.JSON(http.StatusOK, statisticsResponse{
		Message:    "OK",
		Statistics: app.Query.GetStatistics(),
	})
}

// ExportGraphHandler dumps the full graph as node and edge lists.
func ExportGraphHandler(c echo.Context) error {
	type exportResponse struct {
		Message string        `json:"message"`
		Graph   *query.Export `json:"graph,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	return c.JSON(http.StatusOK, exportResponse{
		Message: "OK",
		Graph:   app.Query.ExportGraph(),
	})
}
