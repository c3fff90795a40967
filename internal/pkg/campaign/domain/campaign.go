package campaign

import (
	"errors"
	"strings"
	"time"
)

// Status tracks a campaign through its lifecycle.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusScheduled Status = "Scheduled"
	StatusSent      Status = "Sent"
)

// Type selects the delivery channel.
type Type string

const (
	TypeEmail    Type = "Email"
	TypeSMS      Type = "SMS"
	TypeWhatsApp Type = "WhatsApp"
)

// Campaign is a bulk send of a template to an audience list.
type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"campaignName"`
	ListName  string    `json:"listName"`
	Status    Status    `json:"status"`
	Type      Type      `json:"type"`
	Template  string    `json:"template"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New validates and normalizes a campaign. Status defaults to Draft.
func New(c Campaign) (*Campaign, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, errors.New("campaignName is required")
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
	switch c.Status {
	case StatusDraft, StatusScheduled, StatusSent:
	default:
		return nil, errors.New("status must be one of Draft, Scheduled, Sent")
	}
	switch c.Type {
	case TypeEmail, TypeSMS, TypeWhatsApp:
	default:
		return nil, errors.New("type must be one of Email, SMS, WhatsApp")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return &c, nil
}
