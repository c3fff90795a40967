package usecase

import (
	"context"
	"fmt"

	chat "github.com/apardew63/wetarseel-server/internal/pkg/chat/domain"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a new message. The
// sender is the identity bound to the connection at accept time, never a
// client-supplied field.
type SendMessageInput struct {
	ConversationID string
	Sender         string
	Body           string
	Attachments    []chat.Attachment
}

// SendMessageUseCase persists a message and rolls the conversation summary
// forward. Steps run in sequence and abort on first failure, so a failed
// persistence step leaves no partial observable state for the caller to
// clean up.
type SendMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewSendMessageUseCase(repo repository.ChatRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo}
}

// Execute validates, persists and returns the stored message.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(chat.Message{
		ConversationID: in.ConversationID,
		Sender:         in.Sender,
		Body:           in.Body,
		Attachments:    in.Attachments,
	})
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id

	if err := uc.Repo.TouchConversation(ctx, msg.ConversationID, msg.Body, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return msg, nil
}
