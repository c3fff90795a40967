package chat

import "time"

// Conversation is the persisted side-record of a room. Its summary fields
// always reflect the most recently accepted message; under concurrent
// senders last-write-wins by storage ordering.
type Conversation struct {
	ID             string    `json:"id"`
	Title          string    `json:"title,omitempty"`
	LastMessage    string    `json:"lastMessage"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	CreatedAt      time.Time `json:"createdAt"`
}
