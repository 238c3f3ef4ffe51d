package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborcrm/harbor/internal/model"
)

// CreateProject inserts a new project.
func (s *SQLiteStore) CreateProject(ctx context.Context, project model.Project) (*model.Project, error) {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, tenant_id, name, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID, project.TenantID, project.Name, project.Archived,
		project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return &project, nil
}

// GetProjects retrieves a tenant's projects, optionally including
// archived ones.
func (s *SQLiteStore) GetProjects(ctx context.Context, tenantID string, includeArchived bool) ([]model.Project, error) {
	query := "SELECT * FROM projects WHERE tenant_id = ?"
	if !includeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY name"

	var projects []model.Project
	if err := s.db.SelectContext(ctx, &projects, query, tenantID); err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projects, nil
}

// CreateAttachment inserts an attachment reference. The file itself is
// stored and served by the upload service, outside this subsystem.
func (s *SQLiteStore) CreateAttachment(ctx context.Context, att model.Attachment) (*model.Attachment, error) {
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	att.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (id, tenant_id, task_id, file_name, mime_type, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		att.ID, att.TenantID, att.TaskID, att.FileName, att.MimeType, att.SizeBytes, att.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating attachment: %w", err)
	}
	return &att, nil
}

// GetAttachmentsForTask retrieves all attachment references on a task.
func (s *SQLiteStore) GetAttachmentsForTask(ctx context.Context, taskID string) ([]model.Attachment, error) {
	var atts []model.Attachment
	err := s.db.SelectContext(ctx, &atts,
		"SELECT * FROM attachments WHERE task_id = ? ORDER BY created_at", taskID)
	if err != nil {
		return nil, fmt.Errorf("querying attachments for task %s: %w", taskID, err)
	}
	return atts, nil
}
