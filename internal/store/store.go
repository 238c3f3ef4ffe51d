package store

import (
	"context"
	"time"

	"github.com/harborcrm/harbor/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for task queries.
// All queries are implicitly scoped to one tenant.
type TaskFilter struct {
	Status     *string
	Priority   *string
	ProjectID  *string
	EmployeeID *string // individually assigned to this employee
	GroupID    *string // assigned to this group
	Query      *string // search title + description
	SortBy     string  // "created_at", "updated_at", "due_date", "priority", "title"
	SortDesc   bool
	Limit      int
	Offset     int
}

// Store defines the persistence interface for tasks, sub-tasks,
// conversations, and the directory data the access evaluator needs.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, tenantID, id string) error
	GetTaskByID(ctx context.Context, tenantID, id string) (*model.Task, error)
	GetTasks(ctx context.Context, tenantID string, filter TaskFilter) ([]model.Task, error)
	SaveTaskStatus(ctx context.Context, tenantID, id, status string) error
	SaveTaskProgress(ctx context.Context, tenantID, id string, progress float64) error
	SetTaskStartedAt(ctx context.Context, tenantID, id string, startedAt time.Time) error

	// === Sub-tasks ===

	CreateSubTask(ctx context.Context, sub model.SubTask) (*model.SubTask, error)
	UpdateSubTask(ctx context.Context, sub model.SubTask) error
	DeleteSubTask(ctx context.Context, id string) error
	GetSubTaskByID(ctx context.Context, id string) (*model.SubTask, error)
	GetSubTasks(ctx context.Context, taskID string) ([]model.SubTask, error)

	// === Conversations & messages ===

	GetOrCreateConversation(ctx context.Context, tenantID, taskID string) (*model.Conversation, error)
	GetConversationByID(ctx context.Context, id string) (*model.Conversation, error)
	GetConversationByTaskID(ctx context.Context, taskID string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, msg model.Message) (*model.Message, error)
	GetMessages(ctx context.Context, conversationID string, page, pageSize int) (*model.MessagePage, error)
	MarkAllMessagesRead(ctx context.Context, conversationID, userID string) error
	UnreadCount(ctx context.Context, conversationID, userID string) (int, error)

	// === Attachments ===

	CreateAttachment(ctx context.Context, att model.Attachment) (*model.Attachment, error)
	GetAttachmentsForTask(ctx context.Context, taskID string) ([]model.Attachment, error)

	// === Projects ===

	CreateProject(ctx context.Context, project model.Project) (*model.Project, error)
	GetProjects(ctx context.Context, tenantID string, includeArchived bool) ([]model.Project, error)

	// === Directory ===

	CreateTenant(ctx context.Context, tenant model.Tenant) (*model.Tenant, error)
	CreateRole(ctx context.Context, role model.Role) (*model.Role, error)
	CreateEmployee(ctx context.Context, emp model.Employee) (*model.Employee, error)
	CreateGroup(ctx context.Context, group model.Group) (*model.Group, error)
	AddGroupMember(ctx context.Context, groupID, employeeID string) error
	GetGroupMembers(ctx context.Context, groupID string) ([]string, error)
	CreateUser(ctx context.Context, user model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// === API tokens ===

	CreateAPIToken(ctx context.Context, token, userID string) error
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
}
