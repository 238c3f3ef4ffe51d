package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborcrm/harbor/internal/model"
)

// CreateTenant inserts a new tenant.
func (s *SQLiteStore) CreateTenant(ctx context.Context, tenant model.Tenant) (*model.Tenant, error) {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	tenant.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)",
		tenant.ID, tenant.Name, tenant.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating tenant: %w", err)
	}
	return &tenant, nil
}

// CreateRole inserts a new role with its capability flags.
func (s *SQLiteStore) CreateRole(ctx context.Context, role model.Role) (*model.Role, error) {
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roles (id, tenant_id, name, superadmin, view_all_tasks, manage_tasks)
		VALUES (?, ?, ?, ?, ?, ?)`,
		role.ID, role.TenantID, role.Name, role.Superadmin, role.ViewAllTasks, role.ManageTasks)
	if err != nil {
		return nil, fmt.Errorf("creating role: %w", err)
	}
	return &role, nil
}

// CreateEmployee inserts a new employee (worker identity).
func (s *SQLiteStore) CreateEmployee(ctx context.Context, emp model.Employee) (*model.Employee, error) {
	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO employees (id, tenant_id, name) VALUES (?, ?, ?)",
		emp.ID, emp.TenantID, emp.Name)
	if err != nil {
		return nil, fmt.Errorf("creating employee: %w", err)
	}
	return &emp, nil
}

// CreateGroup inserts a new group.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group model.Group) (*model.Group, error) {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO groups (id, tenant_id, name) VALUES (?, ?, ?)",
		group.ID, group.TenantID, group.Name)
	if err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}
	return &group, nil
}

// AddGroupMember adds an employee to a group. Adding twice is a no-op.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, employeeID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_id, employee_id) VALUES (?, ?)",
		groupID, employeeID)
	if err != nil {
		return fmt.Errorf("adding employee %s to group %s: %w", employeeID, groupID, err)
	}
	return nil
}

// GetGroupMembers returns the employee IDs belonging to a group.
func (s *SQLiteStore) GetGroupMembers(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT employee_id FROM group_members WHERE group_id = ?", groupID)
	if err != nil {
		return nil, fmt.Errorf("querying members of group %s: %w", groupID, err)
	}
	return ids, nil
}

// CreateUser inserts a new user (login principal).
func (s *SQLiteStore) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, name, role_id, employee_id)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.TenantID, user.Name, user.RoleID, user.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return s.GetUserByID(ctx, user.ID)
}

// userRow joins a user with its role's capability flags.
type userRow struct {
	model.User
	RoleName     string `db:"role_name"`
	Superadmin   bool   `db:"superadmin"`
	ViewAllTasks bool   `db:"view_all_tasks"`
	ManageTasks  bool   `db:"manage_tasks"`
}

const userSelect = `
	SELECT u.id, u.tenant_id, u.name, u.role_id, u.employee_id,
	       r.name AS role_name, r.superadmin, r.view_all_tasks, r.manage_tasks
	FROM users u
	JOIN roles r ON r.id = u.role_id`

func (r userRow) toUser() *model.User {
	user := r.User
	user.Role = model.Role{
		ID:           user.RoleID,
		TenantID:     user.TenantID,
		Name:         r.RoleName,
		Superadmin:   r.Superadmin,
		ViewAllTasks: r.ViewAllTasks,
		ManageTasks:  r.ManageTasks,
	}
	return &user
}

// GetUserByID retrieves a user with its role capabilities populated.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, userSelect+" WHERE u.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return row.toUser(), nil
}

// CreateAPIToken binds an opaque credential to a user.
func (s *SQLiteStore) CreateAPIToken(ctx context.Context, token, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO api_tokens (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("creating api token: %w", err)
	}
	return nil
}

// GetUserByToken resolves an opaque credential to the user holding it,
// with role capabilities populated.
func (s *SQLiteStore) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		userSelect+" JOIN api_tokens t ON t.user_id = u.id WHERE t.token = ?", token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("token: %w", model.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	return row.toUser(), nil
}
