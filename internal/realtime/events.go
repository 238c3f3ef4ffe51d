package realtime

import (
	"errors"

	"github.com/harborcrm/harbor/internal/model"
)

// Inbound event types. Every inbound payload carries the tenant id the
// client believes it is acting in; a mismatch with the authenticated
// connection's tenant is rejected with an error event, never silently
// ignored.
const (
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"
)

// Outbound event types.
const (
	EventNewMessage        = "new-message"
	EventUserOnline        = "user-online"
	EventUserOffline       = "user-offline"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
	EventError             = "error"
)

// Error codes carried on error events.
const (
	CodeNotFound        = "not_found"
	CodeForbidden       = "forbidden"
	CodeInvalidState    = "invalid_state"
	CodeUnauthenticated = "unauthenticated"
	CodeBadEvent        = "bad_event"
	CodeInternal        = "internal"
)

// Inbound is the envelope for client-to-server events.
type Inbound struct {
	Type     string `json:"type"`
	TenantID string `json:"tenant_id"`
	TaskID   string `json:"task_id"`

	// send-message fields.
	Content      string  `json:"content,omitempty"`
	Kind         string  `json:"kind,omitempty"`
	AttachmentID *string `json:"attachment_id,omitempty"`
	Nonce        *string `json:"nonce,omitempty"`
}

// Outbound is the envelope for server-to-client events. Message is the
// persisted row for new-message broadcasts, so every observer sees the
// same server-assigned id and timestamp.
type Outbound struct {
	Type    string         `json:"type"`
	TaskID  string         `json:"task_id,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	Message *model.Message `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// errorCode maps a domain error to its wire code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, model.ErrForbidden):
		return CodeForbidden
	case errors.Is(err, model.ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, model.ErrUnauthenticated):
		return CodeUnauthenticated
	default:
		return CodeInternal
	}
}

// errorEvent builds an error event for the originating connection only.
func errorEvent(taskID string, code, reason string) Outbound {
	return Outbound{Type: EventError, TaskID: taskID, Code: code, Reason: reason}
}
