package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborcrm/harbor/internal/model"
)

// CreateTask inserts a new task. Generates a UUID if ID is empty. The
// caller-supplied status is ignored: every task starts as pending.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty: %w", model.ErrInvalidState)
	}
	if task.TenantID == "" {
		return nil, fmt.Errorf("task tenant must be set: %w", model.ErrInvalidState)
	}
	if task.AssignedEmployeeID != nil && task.AssignedGroupID != nil {
		return nil, fmt.Errorf("task assigned to both an employee and a group: %w", model.ErrInvalidState)
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Status = model.StatusPending
	task.Progress = 0
	task.StartedAt = nil
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, tenant_id, title, description, priority,
			due_date, project_id, status, progress, started_at,
			assigned_employee_id, assigned_group_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.TenantID, task.Title, task.Description, task.Priority,
		task.DueDate, task.ProjectID, task.Status, task.Progress, task.StartedAt,
		task.AssignedEmployeeID, task.AssignedGroupID,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &task, nil
}

// UpdateTask updates an existing task by ID within its tenant. The
// assignment-exclusivity invariant is checked against the incoming
// values: both assignees set is always rejected, and clearing both is
// rejected once the stored row has an assignment.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty: %w", model.ErrInvalidState)
	}
	if task.AssignedEmployeeID != nil && task.AssignedGroupID != nil {
		return fmt.Errorf("task assigned to both an employee and a group: %w", model.ErrInvalidState)
	}

	current, err := s.GetTaskByID(ctx, task.TenantID, task.ID)
	if err != nil {
		return err
	}
	if current.HasAssignee() && !task.HasAssignee() {
		return fmt.Errorf("task assignment cannot be cleared: %w", model.ErrInvalidState)
	}

	// startedAt is stamped once by the task service and never overwritten.
	if current.StartedAt != nil {
		task.StartedAt = current.StartedAt
	}
	task.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, priority = ?, due_date = ?,
			project_id = ?, status = ?, started_at = ?,
			assigned_employee_id = ?, assigned_group_id = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		task.Title, task.Description, task.Priority, task.DueDate,
		task.ProjectID, task.Status, task.StartedAt,
		task.AssignedEmployeeID, task.AssignedGroupID, task.UpdatedAt,
		task.ID, task.TenantID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", task.ID, model.ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task by ID. Cascades to subtasks, attachments,
// and the conversation with its messages.
func (s *SQLiteStore) DeleteTask(ctx context.Context, tenantID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND tenant_id = ?", id, tenantID)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetTaskByID retrieves a single task by ID within a tenant. A task
// belonging to another tenant is reported as not found, never as
// forbidden, so ids cannot be probed across tenants.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, tenantID, id string) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task,
		"SELECT * FROM tasks WHERE id = ? AND tenant_id = ?", id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &task, nil
}

// GetTasks retrieves tasks in a tenant matching the filter.
func (s *SQLiteStore) GetTasks(
	ctx context.Context,
	tenantID string,
	filter TaskFilter,
) ([]model.Task, error) {
	conditions := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.EmployeeID != nil {
		conditions = append(conditions, "assigned_employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.GroupID != nil {
		conditions = append(conditions, "assigned_group_id = ?")
		args = append(args, *filter.GroupID)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT * FROM tasks WHERE " + strings.Join(conditions, " AND ")

	sortBy := "updated_at"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"title":      true,
			"status":     true,
			"priority":   true,
			"due_date":   true,
			"created_at": true,
			"updated_at": true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var tasks []model.Task
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// SaveTaskStatus persists a task's status without touching other fields.
func (s *SQLiteStore) SaveTaskStatus(ctx context.Context, tenantID, id, status string) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("invalid task status %q: %w", status, model.ErrInvalidState)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND tenant_id = ?",
		status, time.Now().UTC(), id, tenantID)
	if err != nil {
		return fmt.Errorf("saving status for task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// SaveTaskProgress persists the computed progress percentage.
func (s *SQLiteStore) SaveTaskProgress(ctx context.Context, tenantID, id string, progress float64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET progress = ?, updated_at = ? WHERE id = ? AND tenant_id = ?",
		progress, time.Now().UTC(), id, tenantID)
	if err != nil {
		return fmt.Errorf("saving progress for task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// SetTaskStartedAt stamps started_at only if it is not already set.
func (s *SQLiteStore) SetTaskStartedAt(ctx context.Context, tenantID, id string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET started_at = ?
		WHERE id = ? AND tenant_id = ? AND started_at IS NULL`,
		startedAt.UTC(), id, tenantID)
	if err != nil {
		return fmt.Errorf("stamping started_at for task %s: %w", id, err)
	}
	return nil
}
