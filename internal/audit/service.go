package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context) ([]Event, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) LogLogin(ctx context.Context, method, username string, tenantID *int64) error {
	return s.Append(ctx, Event{
		Type:     EventTypeLogin,
		Method:   method,
		Username: username,
		TenantID: tenantID,
		Message:  "signed in",
	})
}

// LogLogout records the host leaving for the server-side logout endpoint.
func (s *Service) LogLogout(ctx context.Context, username string, tenantID *int64) error {
	return s.Append(ctx, Event{
		Type:     EventTypeLogout,
		Username: username,
		TenantID: tenantID,
		Message:  "signed out",
	})
}

func (s *Service) Events(ctx context.Context) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.List(ctx)
}
