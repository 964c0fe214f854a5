package service

import (
	"context"

	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.EventRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service for configuration events.
// If repo is nil, events are only written to the logger.
func NewAuditService(repo ports.EventRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record logs and persists a configuration event. Persistence is best
// effort: a failed insert is logged, never surfaced to the caller.
func (s *auditService) Record(ctx context.Context, event *domain.LedgerEvent) {
	logEvent := s.log.Info().
		Str("event", string(event.Type)).
		Str("account", string(event.Account))
	if event.Asset != "" {
		logEvent = logEvent.Str("asset", string(event.Asset))
	}
	if event.Value != nil {
		logEvent = logEvent.Str("value", event.Value.String())
	}
	logEvent.Msg("ledger event")

	if s.repo != nil {
		if err := s.repo.Create(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("event", string(event.Type)).Msg("failed to persist ledger event")
		}
	}
}
