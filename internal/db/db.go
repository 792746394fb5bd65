package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup by ID matches nothing.
var ErrNotFound = errors.New("not found")

const defaultListLimit = 50

type Department struct {
	DepartmentID   int32  `json:"department_id"`
	DepartmentName string `json:"department_name"`
	Location       string `json:"location"`
}

type Employee struct {
	EmployeeID   int32      `json:"employee_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	PhoneNumber  *string    `json:"phone_number"`
	HireDate     *time.Time `json:"hire_date"`
	JobID        *string    `json:"job_id"`
	Salary       *float64   `json:"salary"`
	DepartmentID *int32     `json:"department_id"`
}

// Queries bundles the employee directory lookups over one connection pool.
type Queries struct {
	conn *pgxpool.Pool
}

func New(conn *pgxpool.Pool) *Queries {
	return &Queries{conn: conn}
}

const employeeColumns = `employee_id, first_name, last_name, email,
	phone_number, hire_date, job_id, salary, department_id`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(
		&e.EmployeeID,
		&e.FirstName,
		&e.LastName,
		&e.Email,
		&e.PhoneNumber,
		&e.HireDate,
		&e.JobID,
		&e.Salary,
		&e.DepartmentID,
	)
	return e, err
}

func collectEmployees(rows pgx.Rows) ([]Employee, error) {
	defer rows.Close()
	employees := make([]Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (q *Queries) ListEmployees(ctx context.Context, limit int32) ([]Employee, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := q.conn.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM employees ORDER BY employee_id LIMIT $1`, employeeColumns,
	), limit)
	if err != nil {
		return nil, err
	}
	return collectEmployees(rows)
}

func (q *Queries) GetEmployee(ctx context.Context, id int32) (Employee, error) {
	row := q.conn.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM employees WHERE employee_id = $1`, employeeColumns,
	), id)
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, fmt.Errorf("%w: employee %d", ErrNotFound, id)
	}
	return e, err
}

// SearchEmployeesByName matches the name case-insensitively against first
// name, last name and the concatenation of both.
func (q *Queries) SearchEmployeesByName(ctx context.Context, name string, limit int32) ([]Employee, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	pattern := "%" + name + "%"
	rows, err := q.conn.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM employees
		 WHERE first_name ILIKE $1
		    OR last_name ILIKE $1
		    OR first_name || ' ' || last_name ILIKE $1
		 ORDER BY employee_id LIMIT $2`, employeeColumns,
	), pattern, limit)
	if err != nil {
		return nil, err
	}
	return collectEmployees(rows)
}

func (q *Queries) ListEmployeesByDepartment(ctx context.Context, departmentID int32, limit int32) ([]Employee, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := q.conn.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM employees WHERE department_id = $1 ORDER BY employee_id LIMIT $2`,
		employeeColumns,
	), departmentID, limit)
	if err != nil {
		return nil, err
	}
	return collectEmployees(rows)
}

func (q *Queries) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := q.conn.Query(ctx,
		`SELECT department_id, department_name, location FROM departments ORDER BY department_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := make([]Department, 0)
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.DepartmentID, &d.DepartmentName, &d.Location); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (q *Queries) GetDepartment(ctx context.Context, id int32) (Department, error) {
	var d Department
	err := q.conn.QueryRow(ctx,
		`SELECT department_id, department_name, location FROM departments WHERE department_id = $1`,
		id,
	).Scan(&d.DepartmentID, &d.DepartmentName, &d.Location)
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, fmt.Errorf("%w: department %d", ErrNotFound, id)
	}
	return d, err
}
