package routes

import (
	"errors"
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/graph"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/query"

	"github.com/labstack/echo/v4"
)

// FindPathHandler computes the shortest directed path between two entities.
func FindPathHandler(c echo.Context) error {
	type findPathParams struct {
		Source    string `query:"source" validate:"required"`
		Target    string `query:"target" validate:"required"`
		MaxLength int    `query:"max_length"`
	}

	type findPathResponse struct {
		Message string            `json:"message"`
		Result  *query.PathResult `json:"result,omitempty"`
	}

	params := new(findPathParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, findPathResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, findPathResponse{
			Message: "Source and target are required",
		})
	}

	app := c.(*middleware.AppContext).App
	result, err := app.Query.FindPath(params.Source, params.Target, params.MaxLength)
	if err != nil {
		if errors.Is(err, graph.ErrEntityNotFound) {
			return c.JSON(http.StatusNotFound, findPathResponse{
				Message: "Entity not found",
			})
		}
		if errors.Is(err, graph.ErrNoPath) {
			return c.JSON(http.StatusNotFound, findPathResponse{
				Message: "No path found",
			})
		}
		return c.JSON(http.StatusInternalServerError, findPathResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, findPathResponse{
		Message: "OK",
		Result:  result,
	})
}
