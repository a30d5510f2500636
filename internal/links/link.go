package links

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("link not found")
	ErrDuplicateName    = errors.New("link name already exists")
	ErrUpdateConflict   = errors.New("link was renamed or deleted by someone else")
	ErrInvalidURLScheme = errors.New("url must start with http:// or https://")
	ErrInvalidName      = errors.New("link name must not be empty")
)

// Link maps a short name to a destination URL.
type Link struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	VisitCount int64  `json:"visitCount"`
}

// Repository is the storage contract for links.
type Repository interface {
	// Get returns ErrNotFound when no link has the given name.
	Get(ctx context.Context, name string) (*Link, error)
	List(ctx context.Context) ([]Link, error)
	// IncrementCount is a no-op for unknown names.
	IncrementCount(ctx context.Context, name string) error
	// Create returns ErrDuplicateName when the name is taken.
	Create(ctx context.Context, name, url string) error
	// Update reports false when original no longer exists.
	Update(ctx context.Context, original, name, url string) (bool, error)
	Delete(ctx context.Context, name string) error
}

// EventKind classifies an audit event.
type EventKind string

const (
	EventRedirect EventKind = "redirect"
	EventCreate   EventKind = "create"
	EventUpdate   EventKind = "update"
	EventDelete   EventKind = "delete"
)

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	ID     string    `json:"id"`
	Kind   EventKind `json:"kind"`
	Name   string    `json:"name"`
	Detail string    `json:"detail"`
	Actor  string    `json:"actor,omitempty"`
	At     time.Time `json:"at"`
}

// NewAuditEvent stamps a new event with a fresh ID and the current time.
func NewAuditEvent(kind EventKind, name, detail string) *AuditEvent {
	return &AuditEvent{
		ID:     uuid.NewString(),
		Kind:   kind,
		Name:   name,
		Detail: detail,
		At:     time.Now().UTC(),
	}
}

// AuditLog records audit events.
type AuditLog interface {
	Log(ctx context.Context, event *AuditEvent) error
}
