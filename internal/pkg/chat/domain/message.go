package chat

import (
	"errors"
	"strings"
	"time"
)

// Status tracks delivery progress of a message.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Attachment is a file reference carried by a message.
type Attachment struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// Message is an immutable log entry in a conversation. Only Status may
// change after persistence, and not through the realtime path.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationID"`
	Sender         string       `json:"sender"`
	Body           string       `json:"body"`
	Attachments    []Attachment `json:"attachments"`
	Status         Status       `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// NewMessage validates and normalizes a message before persistence.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" || m.Sender == "" {
		return nil, errors.New("conversationID and sender are required")
	}

	m.Body = strings.TrimSpace(m.Body)
	if m.Body == "" && len(m.Attachments) == 0 {
		return nil, errors.New("message must contain either body or attachments")
	}

	if m.Attachments == nil {
		m.Attachments = []Attachment{}
	}
	if m.Status == "" {
		m.Status = StatusSent
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}
