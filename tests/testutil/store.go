// Package testutil provides store fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/store"
)

// NewTestStore creates a throwaway SQLiteStore with all migrations
// applied, backed by a file in the test's temp dir so concurrent
// access behaves like production. It automatically closes the store
// when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "harbor-test.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedTenant creates a tenant.
func SeedTenant(t *testing.T, s store.Store, name string) *model.Tenant {
	t.Helper()
	tenant, err := s.CreateTenant(context.Background(), model.Tenant{Name: name})
	if err != nil {
		t.Fatalf("seeding tenant %s: %v", name, err)
	}
	return tenant
}

// SeedRole creates a role with the given capability flags.
func SeedRole(t *testing.T, s store.Store, tenantID, name string, superadmin, viewAll, manage bool) *model.Role {
	t.Helper()
	role, err := s.CreateRole(context.Background(), model.Role{
		TenantID:     tenantID,
		Name:         name,
		Superadmin:   superadmin,
		ViewAllTasks: viewAll,
		ManageTasks:  manage,
	})
	if err != nil {
		t.Fatalf("seeding role %s: %v", name, err)
	}
	return role
}

// SeedEmployee creates an employee (worker identity).
func SeedEmployee(t *testing.T, s store.Store, tenantID, name string) *model.Employee {
	t.Helper()
	emp, err := s.CreateEmployee(context.Background(), model.Employee{TenantID: tenantID, Name: name})
	if err != nil {
		t.Fatalf("seeding employee %s: %v", name, err)
	}
	return emp
}

// SeedUser creates a user with the given role and optional worker identity.
func SeedUser(t *testing.T, s store.Store, tenantID, name, roleID string, employeeID *string) *model.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), model.User{
		TenantID:   tenantID,
		Name:       name,
		RoleID:     roleID,
		EmployeeID: employeeID,
	})
	if err != nil {
		t.Fatalf("seeding user %s: %v", name, err)
	}
	return user
}

// SeedGroup creates a group with the given employee members.
func SeedGroup(t *testing.T, s store.Store, tenantID, name string, memberIDs ...string) *model.Group {
	t.Helper()
	group, err := s.CreateGroup(context.Background(), model.Group{TenantID: tenantID, Name: name})
	if err != nil {
		t.Fatalf("seeding group %s: %v", name, err)
	}
	for _, id := range memberIDs {
		if err := s.AddGroupMember(context.Background(), group.ID, id); err != nil {
			t.Fatalf("adding member %s to group %s: %v", id, name, err)
		}
	}
	return group
}

// SeedTask creates a task in the tenant, optionally assigned.
func SeedTask(t *testing.T, s store.Store, tenantID, title string, employeeID, groupID *string) *model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), model.Task{
		TenantID:           tenantID,
		Title:              title,
		AssignedEmployeeID: employeeID,
		AssignedGroupID:    groupID,
	})
	if err != nil {
		t.Fatalf("seeding task %s: %v", title, err)
	}
	return task
}
