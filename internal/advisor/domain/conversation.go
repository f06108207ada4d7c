package domain

import "time"

// Role tags who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. Turns are never modified after creation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState is the lifecycle position of a session's conversation.
type ConversationState string

const (
	// StateIdle: no turn recorded since creation or the last clear.
	StateIdle ConversationState = "idle"
	// StateActive: at least one turn recorded within the timeout.
	StateActive ConversationState = "active"
	// StateExpired: the last turn is older than the timeout. Advisory only.
	StateExpired ConversationState = "expired"
)
