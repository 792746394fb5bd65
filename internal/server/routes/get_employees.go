package routes

import (
	"errors"
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/db"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetEmployeesHandler lists employees from the directory.
func GetEmployeesHandler(c echo.Context) error {
	type listEmployeesParams struct {
		Limit int32 `query:"limit"`
	}

	type listEmployeesResponse struct {
		Message   string        `json:"message"`
		Employees []db.Employee `json:"employees,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.DBConn == nil {
		return c.JSON(http.StatusServiceUnavailable, listEmployeesResponse{
			Message: "Employee directory is not configured",
		})
	}

	params := new(listEmployeesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, listEmployeesResponse{
			Message: "Invalid request",
		})
	}

	employees, err := db.New(app.DBConn).ListEmployees(c.Request().Context(), params.Limit)
	if err != nil {
		logger.Error("Failed to list employees", "err", err)
		return c.JSON(http.StatusInternalServerError, listEmployeesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, listEmployeesResponse{
		Message:   "OK",
		Employees: employees,
	})
}

// GetEmployeeHandler looks up one employee by ID.
func GetEmployeeHandler(c echo.Context) error {
	type getEmployeeParams struct {
		ID int32 `param:"id" validate:"required"`
	}

	type getEmployeeResponse struct {
		Message  string       `json:"message"`
		Employee *db.Employee `json:"employee,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.DBConn == nil {
		return c.JSON(http.StatusServiceUnavailable, getEmployeeResponse{
			Message: "Employee directory is not configured",
		})
	}

	params := new(getEmployeeParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getEmployeeResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getEmployeeResponse{
			Message: "Invalid employee ID",
		})
	}

	employee, err := db.New(app.DBConn).GetEmployee(c.Request().Context(), params.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getEmployeeResponse{
				Message: "Employee not found",
			})
		}
		logger.Error("Failed to get employee", "id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getEmployeeResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getEmployeeResponse{
		Message:  "OK",
		Employee: &employee,
	})
}

// SearchEmployeesHandler matches employees by name substring.
func SearchEmployeesHandler(c echo.Context) error {
	type searchEmployeesParams struct {
		Name  string `query:"name" validate:"required"`
		Limit int32  `query:"limit"`
	}

	type searchEmployeesResponse struct {
		Message   string        `json:"message"`
		Employees []db.Employee `json:"employees,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.DBConn == nil {
		return c.JSON(http.StatusServiceUnavailable, searchEmployeesResponse{
			Message: "Employee directory is not configured",
		})
	}

	params := new(searchEmployeesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchEmployeesResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchEmployeesResponse{
			Message: "Name is required",
		})
	}

	employees, err := db.New(app.DBConn).SearchEmployeesByName(
		c.Request().Context(),
		params.Name,
		params.Limit,
	)
	if err != nil {
		logger.Error("Failed to search employees", "err", err)
		return c.JSON(http.StatusInternalServerError, searchEmployeesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchEmployeesResponse{
		Message:   "OK",
		Employees: employees,
	})
}
