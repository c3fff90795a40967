package repository

import (
	"context"
	"time"

	chat "github.com/apardew63/wetarseel-server/internal/pkg/chat/domain"
)

// ChatRepository defines persistence operations for the chat domain.
// Implementations provide single-document atomicity per call; no
// cross-call transaction semantics are assumed.
type ChatRepository interface {
	// SaveMessage persists the message and returns the generated id.
	SaveMessage(ctx context.Context, m chat.Message) (string, error)

	// TouchConversation upserts the conversation summary with the latest
	// accepted message body and activity timestamp.
	TouchConversation(ctx context.Context, conversationID string, lastMessage string, at time.Time) error

	// GetMessagesByConversation fetches message history, newest first.
	GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error)
}
