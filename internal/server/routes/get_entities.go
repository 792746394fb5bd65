package routes

import (
	"errors"
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/graph"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/query"

	"github.com/labstack/echo/v4"
)

// ListEntitiesHandler returns a bounded listing of all entities.
func ListEntitiesHandler(c echo.Context) error {
	type listEntitiesParams struct {
		Limit int `query:"limit"`
	}

	type listEntitiesResponse struct {
		Message string            `json:"message"`
		Result  *query.ListResult `json:"result,omitempty"`
	}

	params := new(listEntitiesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, listEntitiesResponse{
			Message: "Invalid request",
		})
	}

	app := c.(*middleware.AppContext).App
	result := app.Query.ListAllEntities(params.Limit)

	return c.JSON(http.StatusOK, listEntitiesResponse{
		Message: "OK",
		Result:  result,
	})
}

// GetEntityHandler looks up one entity with its relations.
func GetEntityHandler(c echo.Context) error {
	type getEntityResponse struct {
		Message string              `json:"message"`
		Entity  *query.EntityResult `json:"entity,omitempty"`
	}

	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, getEntityResponse{
			Message: "Entity name is required",
		})
	}

	app := c.(*middleware.AppContext).App
	entity, err := app.Query.QueryEntity(name)
	if err != nil {
		if errors.Is(err, graph.ErrEntityNotFound) {
			return c.JSON(http.StatusNotFound, getEntityResponse{
				Message: "Entity not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, getEntityResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getEntityResponse{
		Message: "OK",
		Entity:  entity,
	})
}
