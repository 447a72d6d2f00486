package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies which side of a support conversation wrote a message.
const (
	SenderVisitor = "visitor"
	SenderAdmin   = "admin"
)

type Conversation struct {
	ID          uuid.UUID `json:"id"`
	VisitorID   uuid.UUID `json:"visitor_id"`
	VisitorName string    `json:"visitor_name"`
	Status      string    `json:"status"` // "open" | "closed"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConversationSummary is the conversation-list row the admin dashboard polls:
// the counterpart identity plus presence and unread flags.
type ConversationSummary struct {
	Conversation
	LastMessage *ChatMessageRecord `json:"last_message,omitempty"`
	UnreadCount int                `json:"unread_count"`
	Online      bool               `json:"online"`
	Focused     bool               `json:"focused,omitempty"`
}

type ChatMessageRecord struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatMessage is a single turn in an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// AssistantRequest is the payload sent to the streaming assistant endpoint.
type AssistantRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// WSMessage is the envelope pushed to admin websocket clients.
type WSMessage struct {
	Type    string      `json:"type"` // "new_message" | "conversation_updated" | "focus_conversation"
	Payload interface{} `json:"payload"`
}
