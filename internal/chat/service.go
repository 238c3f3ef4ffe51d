// Package chat is the conversation layer over the store: the lazy 1:1
// task conversation, append-only messages, and per-reader read state.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harborcrm/harbor/internal/access"
	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/store"
)

// Service exposes conversation operations keyed by task. All of them
// pass through the access evaluator first.
type Service struct {
	store  store.Store
	access *access.Evaluator
	logger *slog.Logger
}

// NewService wires a chat service.
func NewService(s store.Store, ev *access.Evaluator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, access: ev, logger: logger}
}

// Send appends a message to the task's conversation, creating the
// conversation on first use. Either content or an attachment reference
// must be present. The returned message carries the server-assigned id
// and timestamp; broadcast always uses this persisted form.
func (s *Service) Send(ctx context.Context, user *model.User, taskID, content, kind string, attachmentID, nonce *string) (*model.Message, error) {
	if _, err := s.access.AuthorizeView(ctx, user, taskID); err != nil {
		return nil, err
	}
	conv, err := s.store.GetOrCreateConversation(ctx, user.TenantID, taskID)
	if err != nil {
		return nil, err
	}
	return s.store.AppendMessage(ctx, model.Message{
		ConversationID: conv.ID,
		SenderID:       user.ID,
		Content:        content,
		Kind:           kind,
		AttachmentID:   attachmentID,
		Nonce:          nonce,
	})
}

// History returns one page of the task's conversation, oldest first
// within the page, and marks every message in the conversation as read
// for the caller. A task with no conversation yet yields an empty page.
func (s *Service) History(ctx context.Context, user *model.User, taskID string, page, pageSize int) (*model.MessagePage, error) {
	if _, err := s.access.AuthorizeView(ctx, user, taskID); err != nil {
		return nil, err
	}

	conv, err := s.store.GetConversationByTaskID(ctx, taskID)
	if errors.Is(err, model.ErrNotFound) {
		return &model.MessagePage{Page: 1, PageSize: pageSize}, nil
	}
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.GetMessages(ctx, conv.ID, page, pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkAllMessagesRead(ctx, conv.ID, user.ID); err != nil {
		return nil, fmt.Errorf("marking conversation %s read: %w", conv.ID, err)
	}
	return msgs, nil
}

// Unread returns the caller's unread count for the task's conversation.
// A task with no conversation yet has zero unread messages.
func (s *Service) Unread(ctx context.Context, user *model.User, taskID string) (int, error) {
	if _, err := s.access.AuthorizeView(ctx, user, taskID); err != nil {
		return 0, err
	}
	conv, err := s.store.GetConversationByTaskID(ctx, taskID)
	if errors.Is(err, model.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return s.store.UnreadCount(ctx, conv.ID, user.ID)
}
