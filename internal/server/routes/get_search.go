package routes

import (
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/query"

	"github.com/labstack/echo/v4"
)

// SearchEntitiesHandler runs a keyword search over names and descriptions.
func SearchEntitiesHandler(c echo.Context) error {
	type searchParams struct {
		Keyword string `query:"keyword"`
		Type    string `query:"type"`
	}

	type searchResponse struct {
		Message string              `json:"message"`
		Result  *query.SearchResult `json:"result,omitempty"`
	}

	params := new(searchParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request",
		})
	}

	app := c.(*middleware.AppContext).App
	result := app.Query.SearchEntities(params.Keyword, params.Type)

	return c.JSON(http.StatusOK, searchResponse{
		Message: "OK",
		Result:  result,
	})
}
