package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborcrm/harbor/internal/model"
)

// GetOrCreateConversation returns the single conversation bound to a
// task, creating it if it does not exist yet. The UNIQUE constraint on
// conversations.task_id is the authoritative de-duplication mechanism:
// when two first messages race, one insert is silently ignored and both
// callers read back the same row.
func (s *SQLiteStore) GetOrCreateConversation(ctx context.Context, tenantID, taskID string) (*model.Conversation, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, task_id, tenant_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(task_id) DO NOTHING`,
		uuid.New().String(), taskID, tenantID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation for task %s: %w", taskID, err)
	}
	return s.GetConversationByTaskID(ctx, taskID)
}

// GetConversationByID retrieves a conversation by its own ID.
func (s *SQLiteStore) GetConversationByID(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.GetContext(ctx, &conv, "SELECT * FROM conversations WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return &conv, nil
}

// GetConversationByTaskID retrieves the conversation bound to a task.
func (s *SQLiteStore) GetConversationByTaskID(ctx context.Context, taskID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.GetContext(ctx, &conv, "SELECT * FROM conversations WHERE task_id = ?", taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation for task %s: %w", taskID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation for task %s: %w", taskID, err)
	}
	return &conv, nil
}

// AppendMessage inserts a message at the end of a conversation.
// Messages are immutable once created; there is no update or delete.
//
// When the message carries a nonce and a message with the same
// (conversation, sender, nonce) already exists, the insert is a no-op
// and the original message is returned, so client retries never produce
// duplicates.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg model.Message) (*model.Message, error) {
	if msg.Content == "" && msg.AttachmentID == nil {
		return nil, fmt.Errorf("message needs content or an attachment: %w", model.ErrInvalidState)
	}
	if msg.Kind == "" {
		msg.Kind = model.MessageKindText
	}
	if !model.ValidMessageKind(msg.Kind) {
		return nil, fmt.Errorf("invalid message kind %q: %w", msg.Kind, model.ErrInvalidState)
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (
			id, conversation_id, sender_id, content, kind,
			attachment_id, nonce, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, sender_id, nonce) WHERE nonce IS NOT NULL DO NOTHING`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.Kind,
		msg.AttachmentID, msg.Nonce, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 && msg.Nonce != nil {
		// Retry of an already-appended message.
		var existing model.Message
		err := s.db.GetContext(ctx, &existing, `
			SELECT * FROM messages
			WHERE conversation_id = ? AND sender_id = ? AND nonce = ?`,
			msg.ConversationID, msg.SenderID, *msg.Nonce)
		if err != nil {
			return nil, fmt.Errorf("fetching deduplicated message: %w", err)
		}
		return &existing, nil
	}

	return &msg, nil
}

// GetMessages retrieves one page of a conversation's history, oldest
// first within the page. Page numbers start at 1.
func (s *SQLiteStore) GetMessages(ctx context.Context, conversationID string, page, pageSize int) (*model.MessagePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var total int
	err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ?", conversationID)
	if err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	// rowid is the server-assigned append sequence; creation timestamps
	// can collide within a busy conversation.
	var messages []model.Message
	err = s.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE conversation_id = ?
		ORDER BY rowid
		LIMIT ? OFFSET ?`,
		conversationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}

	return &model.MessagePage{
		Messages:   messages,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		HasMore:    page*pageSize < total,
	}, nil
}

// MarkAllMessagesRead records a read receipt for every message in the
// conversation the user has not read yet. The user's own messages are
// skipped; they are never counted as unread.
func (s *SQLiteStore) MarkAllMessagesRead(ctx context.Context, conversationID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_reads (message_id, user_id, read_at)
		SELECT id, ?, ? FROM messages
		WHERE conversation_id = ? AND sender_id != ?`,
		userID, time.Now().UTC(), conversationID, userID)
	if err != nil {
		return fmt.Errorf("marking messages read in conversation %s: %w", conversationID, err)
	}
	return nil
}

// UnreadCount returns how many messages in the conversation the user
// has neither authored nor read.
func (s *SQLiteStore) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages m
		WHERE m.conversation_id = ?
		  AND m.sender_id != ?
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = ?
		  )`,
		conversationID, userID, userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return count, nil
}
