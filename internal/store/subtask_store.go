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

// CreateSubTask inserts a new sub-task. Generates a UUID if ID is empty.
// Weight must be positive; zero defaults to unit weight.
func (s *SQLiteStore) CreateSubTask(ctx context.Context, sub model.SubTask) (*model.SubTask, error) {
	if strings.TrimSpace(sub.Title) == "" {
		return nil, fmt.Errorf("sub-task title must not be empty: %w", model.ErrInvalidState)
	}
	if sub.Weight == 0 {
		sub.Weight = 1
	}
	if sub.Weight < 0 {
		return nil, fmt.Errorf("sub-task weight must be positive: %w", model.ErrInvalidState)
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = model.StatusPending
	}
	if !model.ValidStatus(sub.Status) {
		return nil, fmt.Errorf("invalid sub-task status %q: %w", sub.Status, model.ErrInvalidState)
	}

	// Default sort_order to max+1 within the parent task.
	if sub.SortOrder == 0 {
		var maxOrder int
		err := s.db.GetContext(ctx, &maxOrder,
			"SELECT COALESCE(MAX(sort_order), 0) FROM subtasks WHERE task_id = ?", sub.TaskID)
		if err != nil {
			return nil, fmt.Errorf("getting max sort_order: %w", err)
		}
		sub.SortOrder = maxOrder + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subtasks (
			id, task_id, title, instructions, weight,
			sort_order, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.TaskID, sub.Title, sub.Instructions, sub.Weight,
		sub.SortOrder, sub.Status, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating sub-task: %w", err)
	}
	return &sub, nil
}

// UpdateSubTask updates an existing sub-task by ID.
func (s *SQLiteStore) UpdateSubTask(ctx context.Context, sub model.SubTask) error {
	if strings.TrimSpace(sub.Title) == "" {
		return fmt.Errorf("sub-task title must not be empty: %w", model.ErrInvalidState)
	}
	if sub.Weight <= 0 {
		return fmt.Errorf("sub-task weight must be positive: %w", model.ErrInvalidState)
	}
	if !model.ValidStatus(sub.Status) {
		return fmt.Errorf("invalid sub-task status %q: %w", sub.Status, model.ErrInvalidState)
	}
	sub.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE subtasks SET
			title = ?, instructions = ?, weight = ?,
			sort_order = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		sub.Title, sub.Instructions, sub.Weight,
		sub.SortOrder, sub.Status, sub.UpdatedAt,
		sub.ID,
	)
	if err != nil {
		return fmt.Errorf("updating sub-task %s: %w", sub.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("sub-task %s: %w", sub.ID, model.ErrNotFound)
	}
	return nil
}

// DeleteSubTask removes a sub-task by ID.
func (s *SQLiteStore) DeleteSubTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting sub-task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("sub-task %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetSubTaskByID retrieves a single sub-task by ID.
func (s *SQLiteStore) GetSubTaskByID(ctx context.Context, id string) (*model.SubTask, error) {
	var sub model.SubTask
	err := s.db.GetContext(ctx, &sub, "SELECT * FROM subtasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sub-task %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting sub-task %s: %w", id, err)
	}
	return &sub, nil
}

// GetSubTasks retrieves all sub-tasks of a task in display order.
func (s *SQLiteStore) GetSubTasks(ctx context.Context, taskID string) ([]model.SubTask, error) {
	var subs []model.SubTask
	err := s.db.SelectContext(ctx, &subs,
		"SELECT * FROM subtasks WHERE task_id = ? ORDER BY sort_order, created_at", taskID)
	if err != nil {
		return nil, fmt.Errorf("querying sub-tasks for task %s: %w", taskID, err)
	}
	return subs, nil
}
