// Package progress computes a task's aggregate completion percentage
// from its sub-tasks' weights and statuses.
package progress

import (
	"context"
	"fmt"

	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/store"
)

// Engine recomputes and persists task progress. The computation is
// re-run in full on every relevant mutation rather than incrementally
// maintained: an O(sub-task count) read per trigger, which stays cheap
// at the tens of sub-tasks a task realistically carries.
type Engine struct {
	store store.Store
}

// NewEngine creates an Engine backed by the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// Compute returns the completion percentage in [0, 100] for a task
// given a snapshot of its sub-tasks.
//
// With sub-tasks present, each contributes its weight to the total and
// counts as done only when its own status is complete. Without
// sub-tasks, the task's own status decides: complete is 100, cancel
// retains the last stored value, everything else is 0.
func Compute(task *model.Task, subs []model.SubTask) float64 {
	if len(subs) == 0 {
		switch task.Status {
		case model.StatusComplete:
			return 100
		case model.StatusCancel:
			return task.Progress
		default:
			return 0
		}
	}

	var total, done float64
	for _, sub := range subs {
		total += sub.Weight
		if sub.Status == model.StatusComplete {
			done += sub.Weight
		}
	}
	if total <= 0 {
		// Weights are validated positive at creation; this only guards
		// the division.
		return 0
	}

	pct := 100 * done / total
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Recompute loads the task and its sub-tasks, computes the current
// percentage, and persists it on the task row. Returns the computed
// value.
func (e *Engine) Recompute(ctx context.Context, tenantID, taskID string) (float64, error) {
	task, err := e.store.GetTaskByID(ctx, tenantID, taskID)
	if err != nil {
		return 0, err
	}
	subs, err := e.store.GetSubTasks(ctx, taskID)
	if err != nil {
		return 0, fmt.Errorf("loading sub-tasks: %w", err)
	}

	pct := Compute(task, subs)
	if pct == task.Progress {
		return pct, nil
	}
	if err := e.store.SaveTaskProgress(ctx, tenantID, taskID, pct); err != nil {
		return 0, err
	}
	return pct, nil
}
