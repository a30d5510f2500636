package links

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

type linkInput struct {
	Name string `validate:"required"`
	URL  string `validate:"startswith=http://|startswith=https://"`
}

// Validate checks a name and url before any store mutation.
func Validate(name, url string) error {
	err := validate.Struct(linkInput{Name: name, URL: url})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	// Name is declared first, so its failure is reported first.
	if verrs[0].Field() == "Name" {
		return ErrInvalidName
	}

	return ErrInvalidURLScheme
}

// Service administers links and records every change in the audit log.
type Service struct {
	repo   Repository
	audit  AuditLog
	logger *zap.Logger
	actor  func(ctx context.Context) string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithActor names who made a change, e.g. the signed-in user carried by ctx.
// Audit events are stamped with its result.
func WithActor(actor func(ctx context.Context) string) ServiceOption {
	return func(s *Service) {
		s.actor = actor
	}
}

// NewService creates a link administration service.
func NewService(repo Repository, audit AuditLog, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		audit:  audit,
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get returns the link stored under name.
func (s *Service) Get(ctx context.Context, name string) (*Link, error) {
	return s.repo.Get(ctx, name)
}

// List returns every link ordered by name.
func (s *Service) List(ctx context.Context) ([]Link, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	slices.SortFunc(all, func(a, b Link) int { return strings.Compare(a.Name, b.Name) })

	return all, nil
}

// Create adds a new link.
func (s *Service) Create(ctx context.Context, name, url string) error {
	if err := Validate(name, url); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, name, url); err != nil {
		return err
	}

	s.log(ctx, EventCreate, name, url)

	return nil
}

// Update renames and/or repoints the link currently stored under original.
// It returns ErrUpdateConflict when original has vanished.
func (s *Service) Update(ctx context.Context, original, name, url string) error {
	if err := Validate(name, url); err != nil {
		return err
	}

	ok, err := s.repo.Update(ctx, original, name, url)
	if err != nil {
		return err
	}

	if !ok {
		return ErrUpdateConflict
	}

	s.log(ctx, EventUpdate, name, url)

	return nil
}

// Delete removes the link; deleting a missing link is not an error.
func (s *Service) Delete(ctx context.Context, name string) error {
	var detail string
	if link, err := s.repo.Get(ctx, name); err == nil {
		detail = link.URL
	}

	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}

	s.log(ctx, EventDelete, name, detail)

	return nil
}

func (s *Service) log(ctx context.Context, kind EventKind, name, detail string) {
	event := NewAuditEvent(kind, name, detail)
	if s.actor != nil {
		event.Actor = s.actor(ctx)
	}

	if err := s.audit.Log(ctx, event); err != nil {
		s.logger.Error("failed to write audit event",
			zap.String("kind", string(kind)),
			zap.String("name", name),
			zap.Error(err),
		)
	}
}
