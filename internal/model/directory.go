package model

import "time"

// Tenant is a company; the isolation boundary for all data.
type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Employee is a worker identity within a tenant, distinct from the
// login identity. Task assignment always targets employees or groups
// of employees, never login users directly.
type Employee struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Name     string `json:"name" db:"name"`
}

// Group is a named set of employees within a tenant.
type Group struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Name     string `json:"name" db:"name"`
}

// Role is a named, closed set of boolean capabilities. The access
// evaluator consumes these typed flags; there is no open-ended
// permission bag.
type Role struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Name     string `json:"name" db:"name"`

	// Superadmin grants everything within the tenant.
	Superadmin bool `json:"superadmin" db:"superadmin"`

	// ViewAllTasks grants read access to every task in the tenant.
	ViewAllTasks bool `json:"view_all_tasks" db:"view_all_tasks"`

	// ManageTasks grants status and assignment changes on every task
	// in the tenant.
	ManageTasks bool `json:"manage_tasks" db:"manage_tasks"`
}

// User is an authenticated principal: a login identity within one
// tenant, carrying a role and optionally mapping to an employee record.
type User struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Name     string `json:"name" db:"name"`
	RoleID   string `json:"role_id" db:"role_id"`

	// EmployeeID is the worker identity this principal maps to, if any.
	// Users without one (e.g. external auditors) can still hold blanket
	// view capability through their role.
	EmployeeID *string `json:"employee_id,omitempty" db:"employee_id"`

	// Role is populated by queries that join with roles.
	Role Role `json:"role" db:"-"`
}
