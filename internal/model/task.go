package model

import "time"

// Task status constants. Pending is the initial status for every task
// regardless of what the caller supplies at creation. Complete and
// Cancel are terminal.
const (
	StatusPending        = "pending"
	StatusStartedWorking = "started_working"
	StatusComplete       = "complete"
	StatusCancel         = "cancel"
)

// Task priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidStatus reports whether s is one of the four task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusStartedWorking, StatusComplete, StatusCancel:
		return true
	}
	return false
}

// Task is a unit of work owned by a tenant.
//
// A task is assigned to exactly one employee or exactly one group, never
// both. The store rejects any create or update that would leave both (or,
// once assignment has been set, neither) populated.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" db:"id"`

	// TenantID is the owning tenant; the isolation boundary for all access.
	TenantID string `json:"tenant_id" db:"tenant_id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the optional full body text.
	Description string `json:"description" db:"description"`

	// Priority is one of the Priority* constants.
	Priority string `json:"priority" db:"priority"`

	// DueDate is the optional deadline.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// ProjectID optionally groups this task under a project.
	ProjectID *string `json:"project_id,omitempty" db:"project_id"`

	// Status is one of the Status* constants (see the state machine in
	// the task service).
	Status string `json:"status" db:"status"`

	// Progress is the aggregate completion percentage in [0, 100],
	// maintained by the progress engine.
	Progress float64 `json:"progress" db:"progress"`

	// StartedAt is stamped on the first transition into StartedWorking
	// and never overwritten afterwards.
	StartedAt *time.Time `json:"started_at,omitempty" db:"started_at"`

	// AssignedEmployeeID is the individually assigned worker identity.
	AssignedEmployeeID *string `json:"assigned_employee_id,omitempty" db:"assigned_employee_id"`

	// AssignedGroupID is the assigned group.
	AssignedGroupID *string `json:"assigned_group_id,omitempty" db:"assigned_group_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasAssignee reports whether the task has any assignment at all.
func (t *Task) HasAssignee() bool {
	return t.AssignedEmployeeID != nil || t.AssignedGroupID != nil
}

// SubTask is a weighted unit of its parent task's completion. A sub-task
// counts toward progress only when its own status is Complete.
type SubTask struct {
	ID           string    `json:"id" db:"id"`
	TaskID       string    `json:"task_id" db:"task_id"`
	Title        string    `json:"title" db:"title"`
	Instructions string    `json:"instructions" db:"instructions"`
	Weight       float64   `json:"weight" db:"weight"`
	SortOrder    int       `json:"sort_order" db:"sort_order"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TaskDetail is the aggregate returned by the task detail operation.
type TaskDetail struct {
	Task         Task          `json:"task"`
	SubTasks     []SubTask     `json:"sub_tasks"`
	Attachments  []Attachment  `json:"attachments"`
	Conversation *Conversation `json:"conversation,omitempty"`
	UnreadCount  int           `json:"unread_count"`
}
