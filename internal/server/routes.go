package server

import (
	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph build routes
	apiRoutes.POST("/graph/documents", routes.BuildDocumentHandler)
	apiRoutes.POST("/graph/documents/async", routes.EnqueueDocumentHandler)

	// Graph query routes
	apiRoutes.GET("/graph/entities", routes.ListEntitiesHandler)
	apiRoutes.GET("/graph/entities/:name", routes.GetEntityHandler)
	apiRoutes.GET("/graph/search", routes.SearchEntitiesHandler)
	apiRoutes.GET("/graph/path", routes.FindPathHandler)
	apiRoutes.GET("/graph/statistics", routes.GetStatisticsHandler)
	apiRoutes.GET("/graph/export", routes.ExportGraphHandler)

	// Graph lifecycle routes
	apiRoutes.POST("/graph/save", routes.SaveGraphHandler)
	apiRoutes.DELETE("/graph", routes.ClearGraphHandler)

	// Employee directory routes
	apiRoutes.GET("/employees", routes.GetEmployeesHandler)
	apiRoutes.GET("/employees/search", routes.SearchEmployeesHandler)
	apiRoutes.GET("/employees/:id", routes.GetEmployeeHandler)
	apiRoutes.GET("/departments", routes.GetDepartmentsHandler)
	apiRoutes.GET("/departments/:id/employees", routes.GetDepartmentEmployeesHandler)
}
