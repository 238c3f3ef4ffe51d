package progress_test

import (
	"context"
	"testing"

	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/progress"
	"github.com/harborcrm/harbor/tests/testutil"
)

// sub builds a sub-task snapshot with just the fields Compute reads.
func sub(weight float64, status string) model.SubTask {
	return model.SubTask{Weight: weight, Status: status}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
		subs []model.SubTask
		want float64
	}{
		{
			name: "no subtasks pending",
			task: model.Task{Status: model.StatusPending},
			want: 0,
		},
		{
			name: "no subtasks started",
			task: model.Task{Status: model.StatusStartedWorking},
			want: 0,
		},
		{
			name: "no subtasks complete",
			task: model.Task{Status: model.StatusComplete},
			want: 100,
		},
		{
			// A cancelled task without sub-tasks keeps whatever progress
			// it last had.
			name: "no subtasks cancelled retains last value",
			task: model.Task{Status: model.StatusCancel, Progress: 40},
			want: 40,
		},
		{
			name: "weights one and three quarter done",
			task: model.Task{Status: model.StatusStartedWorking},
			subs: []model.SubTask{sub(1, model.StatusComplete), sub(3, model.StatusPending)},
			want: 25,
		},
		{
			name: "all complete is exactly one hundred",
			task: model.Task{Status: model.StatusStartedWorking},
			subs: []model.SubTask{
				sub(0.5, model.StatusComplete),
				sub(2, model.StatusComplete),
				sub(7.25, model.StatusComplete),
			},
			want: 100,
		},
		{
			name: "none complete is zero",
			task: model.Task{Status: model.StatusStartedWorking},
			subs: []model.SubTask{sub(2, model.StatusPending), sub(5, model.StatusCancel)},
			want: 0,
		},
		{
			// Cancelled sub-tasks still weigh in the total; only
			// complete ones count as done.
			name: "cancelled subtask not done",
			task: model.Task{Status: model.StatusStartedWorking},
			subs: []model.SubTask{sub(1, model.StatusComplete), sub(1, model.StatusCancel)},
			want: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progress.Compute(&tt.task, tt.subs)
			if got != tt.want {
				t.Errorf("Compute = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("Compute = %v, outside [0, 100]", got)
			}
		})
	}
}

func TestRecomputePersists(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	tenant := testutil.SeedTenant(t, s, "acme")
	task := testutil.SeedTask(t, s, tenant.ID, "Fit kitchen", nil, nil)
	engine := progress.NewEngine(s)

	done, err := s.CreateSubTask(ctx, model.SubTask{TaskID: task.ID, Title: "Plumbing", Weight: 1})
	if err != nil {
		t.Fatalf("CreateSubTask failed: %v", err)
	}
	if _, err := s.CreateSubTask(ctx, model.SubTask{TaskID: task.ID, Title: "Cabinets", Weight: 3}); err != nil {
		t.Fatalf("CreateSubTask failed: %v", err)
	}

	done.Status = model.StatusComplete
	if err := s.UpdateSubTask(ctx, *done); err != nil {
		t.Fatalf("UpdateSubTask failed: %v", err)
	}

	pct, err := engine.Recompute(ctx, tenant.ID, task.ID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if pct != 25 {
		t.Errorf("Recompute = %v, want 25", pct)
	}

	reloaded, err := s.GetTaskByID(ctx, tenant.ID, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if reloaded.Progress != 25 {
		t.Errorf("persisted progress = %v, want 25", reloaded.Progress)
	}
}

func TestRecomputeMissingTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	tenant := testutil.SeedTenant(t, s, "acme")
	engine := progress.NewEngine(s)

	if _, err := engine.Recompute(context.Background(), tenant.ID, "no-such-task"); err == nil {
		t.Fatal("expected error for missing task")
	}
}
