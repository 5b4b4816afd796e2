// Package identitywebhook applies identity-provider user lifecycle events.
package identitywebhook

import (
	"context"
	"strings"

	"github.com/aaracollective/storefront-backend/pkg/auth"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

const EventUserCreated = "user.created"

// Outcomes recorded per handled event.
const (
	ResultSeeded  = "seeded"
	ResultSkipped = "skipped"
	ResultIgnored = "ignored"
	ResultFailed  = "failed"
)

const defaultRole = "user"

// Event is the subset of a user lifecycle delivery this service reads.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	ID             string         `json:"id"`
	PublicMetadata map[string]any `json:"public_metadata"`
}

type userDirectory interface {
	UserMetadata(ctx context.Context, userID string) (*auth.UserMetadata, error)
	UpdateUserMetadata(ctx context.Context, userID string, public map[string]any) error
}

type webhookMetrics interface {
	IncWebhook(eventType, result string)
}

type ServiceParams struct {
	Directory   userDirectory
	DefaultRole string
	Logger      *logger.Logger
	Metrics     webhookMetrics
}

type Service struct {
	directory userDirectory
	role      string
	logg      *logger.Logger
	metrics   webhookMetrics
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user directory required")
	}
	role := strings.TrimSpace(p.DefaultRole)
	if role == "" {
		role = defaultRole
	}
	return &Service{directory: p.Directory, role: role, logg: p.Logger, metrics: p.Metrics}, nil
}

// HandleEvent seeds the default role on user.created. A user who already has a
// public role keeps it, so redeliveries never demote a promoted account.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "identity event required")
	}
	if event.Type != EventUserCreated {
		s.record(event.Type, ResultIgnored)
		return nil
	}

	userID := strings.TrimSpace(event.Data.ID)
	if userID == "" {
		s.record(event.Type, ResultIgnored)
		return nil
	}
	if s.logg != nil {
		ctx = s.logg.WithUserID(ctx, userID)
	}
	if auth.RoleFrom(event.Data.PublicMetadata) != "" {
		s.record(event.Type, ResultSkipped)
		return nil
	}

	current, err := s.directory.UserMetadata(ctx, userID)
	if err != nil {
		s.record(event.Type, ResultFailed)
		return err
	}
	if current != nil && auth.RoleFrom(current.Public) != "" {
		s.record(event.Type, ResultSkipped)
		return nil
	}

	if err := s.directory.UpdateUserMetadata(ctx, userID, map[string]any{"role": s.role}); err != nil {
		s.record(event.Type, ResultFailed)
		return err
	}
	s.record(event.Type, ResultSeeded)
	if s.logg != nil {
		s.logg.Info(ctx, "identity.user.role_seeded")
	}
	return nil
}

func (s *Service) record(eventType, result string) {
	if s.metrics != nil {
		s.metrics.IncWebhook(eventType, result)
	}
}
