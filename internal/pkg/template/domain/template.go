package template

import (
	"errors"
	"strings"
	"time"
)

// Category buckets a message template by its intended use.
type Category string

const (
	CategoryMarketing Category = "Marketing"
	CategoryCarousel  Category = "Carousel"
	CategoryUtility   Category = "Utility"
)

// Template is a reusable message body, keyed by templateName in the HTTP surface.
type Template struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Name      string    `json:"templateName"`
	Language  string    `json:"language"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New validates and normalizes a template. Category, name, language and
// message are all required.
func New(t Template) (*Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Language = strings.TrimSpace(t.Language)
	t.Message = strings.TrimSpace(t.Message)
	if t.Name == "" {
		return nil, errors.New("templateName is required")
	}
	if t.Language == "" {
		return nil, errors.New("language is required")
	}
	if t.Message == "" {
		return nil, errors.New("message is required")
	}
	switch t.Category {
	case CategoryMarketing, CategoryCarousel, CategoryUtility:
	default:
		return nil, errors.New("category must be one of Marketing, Carousel, Utility")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return &t, nil
}
