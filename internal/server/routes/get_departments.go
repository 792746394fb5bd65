package routes

import (
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/db"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetDepartmentsHandler lists all departments.
func GetDepartmentsHandler(c echo.Context) error {
	type listDepartmentsResponse struct {
		Message     string          `json:"message"`
		Departments []db.Department `json:"departments,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.DBConn == nil {
		return c.JSON(http.StatusServiceUnavailable, listDepartmentsResponse{
			Message: "Employee directory is not configured",
		})
	}

	departments, err := db.New(app.DBConn).ListDepartments(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list departments", "err", err)
		return c.JSON(http.StatusInternalServerError, listDepartmentsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, listDepartmentsResponse{
		Message:     "OK",
		Departments: departments,
	})
}

// GetDepartmentEmployeesHandler lists the employees of one department.
func GetDepartmentEmployeesHandler(c echo.Context) error {
	type departmentEmployeesParams struct {
		ID    int32 `param:"id" validate:"required"`
		Limit int32 `query:"limit"`
	}

	type departmentEmployeesResponse struct {
		Message    string         `json:"message"`
		Department *db.Department `json:"department,omitempty"`
		Employees  []db.Employee  `json:"employees,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.DBConn == nil {
		return c.JSON(http.StatusServiceUnavailable, departmentEmployeesResponse{
			Message: "Employee directory is not configured",
		})
	}

	params := new(departmentEmployeesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, departmentEmployeesResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, departmentEmployeesResponse{
			Message: "Invalid department ID",
		})
	}

	ctx := c.Request().Context()
	q := db.New(app.DBConn)

	department, err := q.GetDepartment(ctx, params.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, departmentEmployeesResponse{
			Message: "Department not found",
		})
	}

	employees, err := q.ListEmployeesByDepartment(ctx, params.ID, params.Limit)
	if err != nil {
		logger.Error("Failed to list department employees", "id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, departmentEmployeesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, departmentEmployeesResponse{
		Message:    "OK",
		Department: &department,
		Employees:  employees,
	})
}
