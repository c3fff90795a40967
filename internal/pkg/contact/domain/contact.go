package contact

import (
	"errors"
	"strings"
	"time"
)

// Status of a contact in the audience lists.
type Status string

const (
	StatusNew      Status = "new"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Contact is an addressable recipient, keyed by name in the HTTP surface.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	List      string    `json:"list,omitempty"`
	Status    Status    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New validates and normalizes a contact.
func New(c Contact) (*Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, errors.New("name is required")
	}
	if c.Status != "" && c.Status != StatusNew && c.Status != StatusActive && c.Status != StatusInactive {
		return nil, errors.New("status must be one of new, active, inactive")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return &c, nil
}
