package model

import "time"

// Message kind constants.
const (
	MessageKindText   = "text"
	MessageKindImage  = "image"
	MessageKindFile   = "file"
	MessageKindAudio  = "audio"
	MessageKindSystem = "system"
)

// ValidMessageKind reports whether k is one of the message kinds.
func ValidMessageKind(k string) bool {
	switch k {
	case MessageKindText, MessageKindImage, MessageKindFile, MessageKindAudio, MessageKindSystem:
		return true
	}
	return false
}

// Conversation is the single chat thread bound 1:1 to a task. It is
// created lazily on first message; a UNIQUE constraint on task_id keeps
// concurrent first messages from creating two.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"task_id" db:"task_id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Message is one entry in a task conversation. Immutable once created
// except for per-reader read state, which lives in a separate table.
type Message struct {
	ID             string  `json:"id" db:"id"`
	ConversationID string  `json:"conversation_id" db:"conversation_id"`
	SenderID       string  `json:"sender_id" db:"sender_id"`
	Content        string  `json:"content" db:"content"`
	Kind           string  `json:"kind" db:"kind"`
	AttachmentID   *string `json:"attachment_id,omitempty" db:"attachment_id"`

	// Nonce is an optional client-supplied dedup key. Retrying a send
	// with the same nonce returns the original message instead of
	// appending a duplicate.
	Nonce *string `json:"nonce,omitempty" db:"nonce"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Attachment is a reference to an uploaded file. Upload and storage
// mechanics live outside this subsystem; messages and tasks only carry
// the reference.
type Attachment struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	TaskID    *string   `json:"task_id,omitempty" db:"task_id"`
	FileName  string    `json:"file_name" db:"file_name"`
	MimeType  string    `json:"mime_type" db:"mime_type"`
	SizeBytes int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MessagePage is one page of conversation history, oldest first.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int       `json:"total_count"`
	HasMore    bool      `json:"has_more"`
}
