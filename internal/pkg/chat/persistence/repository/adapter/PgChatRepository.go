package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/apardew63/wetarseel-server/internal/pkg/chat/domain"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}

	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return "", err
	}

	var id string
	err = r.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, body, attachments, status, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		RETURNING id::text
	`, m.ConversationID, m.Sender, m.Body, attachments, m.Status, m.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) TouchConversation(ctx context.Context, conversationID string, lastMessage string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	// Rooms are implicit: the summary row is created on first touch so a
	// send into a fresh conversation never fails on a missing record.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversations (id, last_message, last_activity_at, created_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id)
		DO UPDATE SET last_message = EXCLUDED.last_message,
		              last_activity_at = EXCLUDED.last_activity_at
	`, conversationID, lastMessage, at)
	return err
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id, sender_id, body, attachments, status, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			msg         chat.Message
			attachments []byte
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Sender, &msg.Body, &attachments, &msg.Status, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &msg.Attachments); err != nil {
				return nil, err
			}
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}
