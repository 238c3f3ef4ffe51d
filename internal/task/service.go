// Package task implements the task lifecycle: the status state
// machine, the assignment-exclusivity invariant, sub-task CRUD, and
// the progress re-trigger on every status-affecting mutation.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harborcrm/harbor/internal/access"
	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/progress"
	"github.com/harborcrm/harbor/internal/store"
)

// Service exposes the request/response task operations. Every operation
// is authorized through the access evaluator before it touches the
// store.
type Service struct {
	store    store.Store
	access   *access.Evaluator
	progress *progress.Engine
	logger   *slog.Logger
}

// NewService wires a task service.
func NewService(s store.Store, ev *access.Evaluator, pe *progress.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, access: ev, progress: pe, logger: logger}
}

// Create creates a task in the caller's tenant. Requires the
// manage-tasks capability. The status the caller supplies is ignored;
// tasks always start pending.
func (s *Service) Create(ctx context.Context, user *model.User, task model.Task) (*model.Task, error) {
	if !user.Role.Superadmin && !user.Role.ManageTasks {
		return nil, fmt.Errorf("creating task: %w", model.ErrForbidden)
	}
	task.TenantID = user.TenantID
	return s.store.CreateTask(ctx, task)
}

// Delete removes a task and everything hanging off it: sub-tasks,
// attachments, and the conversation with its messages.
func (s *Service) Delete(ctx context.Context, user *model.User, taskID string) error {
	if _, err := s.access.AuthorizeAssignmentChange(ctx, user, taskID); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, user.TenantID, taskID)
}

// Detail returns the task together with its sub-tasks, attachment
// references, conversation summary, and the caller's unread count.
func (s *Service) Detail(ctx context.Context, user *model.User, taskID string) (*model.TaskDetail, error) {
	task, err := s.access.AuthorizeView(ctx, user, taskID)
	if err != nil {
		return nil, err
	}

	subs, err := s.store.GetSubTasks(ctx, taskID)
	if err != nil {
		return nil, err
	}
	atts, err := s.store.GetAttachmentsForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	detail := &model.TaskDetail{
		Task:        *task,
		SubTasks:    subs,
		Attachments: atts,
	}

	// The conversation is created lazily on first message, so a task
	// without one is normal.
	conv, err := s.store.GetConversationByTaskID(ctx, taskID)
	switch {
	case err == nil:
		detail.Conversation = conv
		unread, err := s.store.UnreadCount(ctx, conv.ID, user.ID)
		if err != nil {
			return nil, err
		}
		detail.UnreadCount = unread
	case errors.Is(err, model.ErrNotFound):
	default:
		return nil, err
	}

	return detail, nil
}

// UpdateStatus moves a task through the state machine. Entering
// started_working for the first time stamps started_at; the stamp is
// never overwritten afterwards. Every status change re-runs the
// progress engine.
func (s *Service) UpdateStatus(ctx context.Context, user *model.User, taskID, status string) (*model.Task, error) {
	if !model.ValidStatus(status) {
		return nil, fmt.Errorf("invalid task status %q: %w", status, model.ErrInvalidState)
	}
	task, err := s.access.AuthorizeStatusChange(ctx, user, taskID)
	if err != nil {
		return nil, err
	}

	if status == model.StatusStartedWorking && task.StartedAt == nil {
		if err := s.store.SetTaskStartedAt(ctx, user.TenantID, taskID, time.Now().UTC()); err != nil {
			return nil, err
		}
	}
	if err := s.store.SaveTaskStatus(ctx, user.TenantID, taskID, status); err != nil {
		return nil, err
	}
	if _, err := s.progress.Recompute(ctx, user.TenantID, taskID); err != nil {
		return nil, err
	}

	return s.store.GetTaskByID(ctx, user.TenantID, taskID)
}

// Reassign changes a task's assignment to the given employee or group.
// Exactly one of the two must be non-nil; the store rejects anything
// that would violate assignment exclusivity.
func (s *Service) Reassign(ctx context.Context, user *model.User, taskID string, employeeID, groupID *string) (*model.Task, error) {
	task, err := s.access.AuthorizeAssignmentChange(ctx, user, taskID)
	if err != nil {
		return nil, err
	}

	task.AssignedEmployeeID = employeeID
	task.AssignedGroupID = groupID
	if err := s.store.UpdateTask(ctx, *task); err != nil {
		return nil, err
	}
	return s.store.GetTaskByID(ctx, user.TenantID, taskID)
}

// CreateSubTask adds a sub-task to a task and recomputes progress.
// Anyone who may change the task's status may manage its sub-tasks.
func (s *Service) CreateSubTask(ctx context.Context, user *model.User, sub model.SubTask) (*model.SubTask, error) {
	if _, err := s.access.AuthorizeStatusChange(ctx, user, sub.TaskID); err != nil {
		return nil, err
	}
	created, err := s.store.CreateSubTask(ctx, sub)
	if err != nil {
		return nil, err
	}
	if _, err := s.progress.Recompute(ctx, user.TenantID, sub.TaskID); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateSubTask updates a sub-task and recomputes the parent's progress.
func (s *Service) UpdateSubTask(ctx context.Context, user *model.User, sub model.SubTask) (*model.SubTask, error) {
	current, err := s.store.GetSubTaskByID(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.AuthorizeStatusChange(ctx, user, current.TaskID); err != nil {
		return nil, err
	}

	sub.TaskID = current.TaskID
	if err := s.store.UpdateSubTask(ctx, sub); err != nil {
		return nil, err
	}
	if _, err := s.progress.Recompute(ctx, user.TenantID, current.TaskID); err != nil {
		return nil, err
	}
	return s.store.GetSubTaskByID(ctx, sub.ID)
}

// DeleteSubTask removes a sub-task and recomputes the parent's progress.
func (s *Service) DeleteSubTask(ctx context.Context, user *model.User, subTaskID string) error {
	current, err := s.store.GetSubTaskByID(ctx, subTaskID)
	if err != nil {
		return err
	}
	if _, err := s.access.AuthorizeStatusChange(ctx, user, current.TaskID); err != nil {
		return err
	}
	if err := s.store.DeleteSubTask(ctx, subTaskID); err != nil {
		return err
	}
	if _, err := s.progress.Recompute(ctx, user.TenantID, current.TaskID); err != nil {
		return err
	}
	return nil
}
