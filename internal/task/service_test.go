package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/harborcrm/harbor/internal/access"
	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/progress"
	"github.com/harborcrm/harbor/internal/store"
	"github.com/harborcrm/harbor/internal/task"
	"github.com/harborcrm/harbor/tests/testutil"
)

type fixture struct {
	store   *store.SQLiteStore
	service *task.Service
	tenant  *model.Tenant
	admin   *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewTestStore(t)
	tenant := testutil.SeedTenant(t, s, "acme")
	adminRole := testutil.SeedRole(t, s, tenant.ID, "admin", true, false, false)
	admin := testutil.SeedUser(t, s, tenant.ID, "root", adminRole.ID, nil)

	eval := access.NewEvaluator(s)
	svc := task.NewService(s, eval, progress.NewEngine(s), nil)
	return &fixture{store: s, service: svc, tenant: tenant, admin: admin}
}

func TestUpdateStatusStampsStartedAtOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := testutil.SeedTask(t, f.store, f.tenant.ID, "Survey site", nil, nil)

	started, err := f.service.UpdateStatus(ctx, f.admin, created.ID, model.StatusStartedWorking)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if started.StartedAt == nil {
		t.Fatal("started_at not stamped on first transition")
	}
	stamp := *started.StartedAt

	// Push the task back and forward again; the stamp must survive.
	if _, err := f.service.UpdateStatus(ctx, f.admin, created.ID, model.StatusPending); err != nil {
		t.Fatalf("UpdateStatus to pending failed: %v", err)
	}
	again, err := f.service.UpdateStatus(ctx, f.admin, created.ID, model.StatusStartedWorking)
	if err != nil {
		t.Fatalf("second UpdateStatus failed: %v", err)
	}
	if again.StartedAt == nil || !again.StartedAt.Equal(stamp) {
		t.Errorf("started_at changed on re-entry: %v, want %v", again.StartedAt, stamp)
	}
}

func TestUpdateStatusTriggersProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := testutil.SeedTask(t, f.store, f.tenant.ID, "Close deal", nil, nil)

	// No sub-tasks: completion drives progress straight to 100.
	done, err := f.service.UpdateStatus(ctx, f.admin, created.ID, model.StatusComplete)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if done.Progress != 100 {
		t.Errorf("progress = %v, want 100", done.Progress)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	created := testutil.SeedTask(t, f.store, f.tenant.ID, "Close deal", nil, nil)

	_, err := f.service.UpdateStatus(context.Background(), f.admin, created.ID, "paused")
	if !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestSubTaskLifecycleRecomputesProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := testutil.SeedTask(t, f.store, f.tenant.ID, "Fit bathroom", nil, nil)

	first, err := f.service.CreateSubTask(ctx, f.admin, model.SubTask{
		TaskID: created.ID, Title: "Tiling", Weight: 1,
	})
	if err != nil {
		t.Fatalf("CreateSubTask failed: %v", err)
	}
	if _, err := f.service.CreateSubTask(ctx, f.admin, model.SubTask{
		TaskID: created.ID, Title: "Plumbing", Weight: 3,
	}); err != nil {
		t.Fatalf("CreateSubTask failed: %v", err)
	}

	first.Status = model.StatusComplete
	if _, err := f.service.UpdateSubTask(ctx, f.admin, *first); err != nil {
		t.Fatalf("UpdateSubTask failed: %v", err)
	}

	reloaded, err := f.store.GetTaskByID(ctx, f.tenant.ID, created.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if reloaded.Progress != 25 {
		t.Errorf("progress = %v, want 25", reloaded.Progress)
	}

	// Deleting the pending sub-task leaves only the complete one.
	subs, err := f.store.GetSubTasks(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSubTasks failed: %v", err)
	}
	for _, sub := range subs {
		if sub.Status != model.StatusComplete {
			if err := f.service.DeleteSubTask(ctx, f.admin, sub.ID); err != nil {
				t.Fatalf("DeleteSubTask failed: %v", err)
			}
		}
	}
	reloaded, err = f.store.GetTaskByID(ctx, f.tenant.ID, created.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if reloaded.Progress != 100 {
		t.Errorf("progress after delete = %v, want 100", reloaded.Progress)
	}
}

func TestCreateRequiresManageCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staffRole := testutil.SeedRole(t, f.store, f.tenant.ID, "staff", false, false, false)
	staff := testutil.SeedUser(t, f.store, f.tenant.ID, "temp", staffRole.ID, nil)

	_, err := f.service.Create(ctx, staff, model.Task{Title: "Sneaky"})
	if !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	if _, err := f.service.Create(ctx, f.admin, model.Task{Title: "Legit"}); err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
}

func TestReassignKeepsExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := testutil.SeedEmployee(t, f.store, f.tenant.ID, "Kim")
	group := testutil.SeedGroup(t, f.store, f.tenant.ID, "Sales", emp.ID)
	created := testutil.SeedTask(t, f.store, f.tenant.ID, "Quarterly call", &emp.ID, nil)

	_, err := f.service.Reassign(ctx, f.admin, created.ID, &emp.ID, &group.ID)
	if !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("double assignment: err = %v, want ErrInvalidState", err)
	}

	moved, err := f.service.Reassign(ctx, f.admin, created.ID, nil, &group.ID)
	if err != nil {
		t.Fatalf("Reassign failed: %v", err)
	}
	if moved.AssignedEmployeeID != nil || moved.AssignedGroupID == nil {
		t.Errorf("assignment not moved to group: %+v", moved)
	}
}

func TestDetailIncludesConversationSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := testutil.SeedTask(t, f.store, f.tenant.ID, "Demo install", nil, nil)

	detail, err := f.service.Detail(ctx, f.admin, created.ID)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if detail.Conversation != nil {
		t.Errorf("conversation should be nil before first message")
	}

	memberRole := testutil.SeedRole(t, f.store, f.tenant.ID, "viewer", false, true, false)
	other := testutil.SeedUser(t, f.store, f.tenant.ID, "peer", memberRole.ID, nil)
	conv, err := f.store.GetOrCreateConversation(ctx, f.tenant.ID, created.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation failed: %v", err)
	}
	if _, err := f.store.AppendMessage(ctx, model.Message{
		ConversationID: conv.ID, SenderID: other.ID, Content: "when do we start?",
	}); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	detail, err = f.service.Detail(ctx, f.admin, created.ID)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if detail.Conversation == nil {
		t.Fatal("conversation missing from detail")
	}
	if detail.UnreadCount != 1 {
		t.Errorf("unread = %d, want 1", detail.UnreadCount)
	}
}
