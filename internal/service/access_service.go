package service

import (
	"context"
	"fmt"

	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports"
	"custody-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// AccessServiceImpl implements ports.AccessService.
type AccessServiceImpl struct {
	repo  ports.AccessRepository
	audit ports.AuditService
	log   zerolog.Logger
}

// NewAccessService creates a new AccessServiceImpl.
func NewAccessService(repo ports.AccessRepository, audit ports.AuditService, log zerolog.Logger) *AccessServiceImpl {
	return &AccessServiceImpl{repo: repo, audit: audit, log: log}
}

// Bootstrap grants every role to the deploying administrator. Re-granting an
// existing role is a no-op, so startup is idempotent.
func (s *AccessServiceImpl) Bootstrap(ctx context.Context, admin domain.Address) error {
	if admin.IsZero() {
		return apperror.ErrInvalidAddress()
	}
	for _, role := range domain.AllRoles() {
		if err := s.repo.GrantRole(ctx, role, admin); err != nil {
			return apperror.InternalError(fmt.Errorf("bootstrap role %s: %w", role, err))
		}
	}
	s.log.Info().Str("admin", string(admin)).Msg("administrator bootstrapped with all roles")
	return nil
}

// GrantRole assigns a role to an account. Administrator-only.
func (s *AccessServiceImpl) GrantRole(ctx context.Context, caller domain.Address, role domain.Role, account domain.Address) error {
	if err := s.RequireRole(ctx, domain.RoleAdministrator, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return apperror.Validation(fmt.Sprintf("unknown role %q", role))
	}
	if account.IsZero() {
		return apperror.ErrInvalidAddress()
	}
	if err := s.repo.GrantRole(ctx, role, account); err != nil {
		return apperror.InternalError(fmt.Errorf("grant role: %w", err))
	}

	event := domain.NewLedgerEvent(domain.EventRoleGranted)
	event.Account = account
	s.audit.Record(ctx, event)

	s.log.Info().
		Str("role", string(role)).
		Str("account", string(account)).
		Str("granted_by", string(caller)).
		Msg("role granted")
	return nil
}

// HasRole is a pure lookup.
func (s *AccessServiceImpl) HasRole(ctx context.Context, role domain.Role, account domain.Address) (bool, error) {
	ok, err := s.repo.HasRole(ctx, role, account)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("role lookup: %w", err))
	}
	return ok, nil
}

// RequireRole fails with Unauthorized if the account lacks the role.
func (s *AccessServiceImpl) RequireRole(ctx context.Context, role domain.Role, account domain.Address) error {
	ok, err := s.HasRole(ctx, role, account)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrUnauthorized(string(role))
	}
	return nil
}

// Pause halts all mutating ledger operations. Idempotent: pausing an already
// paused system still emits the event.
func (s *AccessServiceImpl) Pause(ctx context.Context, caller domain.Address) error {
	return s.setPaused(ctx, caller, true)
}

// Unpause resumes mutating ledger operations.
func (s *AccessServiceImpl) Unpause(ctx context.Context, caller domain.Address) error {
	return s.setPaused(ctx, caller, false)
}

func (s *AccessServiceImpl) setPaused(ctx context.Context, caller domain.Address, paused bool) error {
	if err := s.RequireRole(ctx, domain.RoleAdministrator, caller); err != nil {
		return err
	}
	if err := s.repo.SetPaused(ctx, paused); err != nil {
		return apperror.InternalError(fmt.Errorf("set paused: %w", err))
	}

	eventType := domain.EventUnpaused
	if paused {
		eventType = domain.EventPaused
	}
	event := domain.NewLedgerEvent(eventType)
	event.Account = caller
	s.audit.Record(ctx, event)

	s.log.Warn().Bool("paused", paused).Str("by", string(caller)).Msg("pause state changed")
	return nil
}

// Paused returns the current pause flag.
func (s *AccessServiceImpl) Paused(ctx context.Context) (bool, error) {
	paused, err := s.repo.IsPaused(ctx)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("pause lookup: %w", err))
	}
	return paused, nil
}

// RequireNotPaused fails with SystemPaused while the halt is active.
func (s *AccessServiceImpl) RequireNotPaused(ctx context.Context) error {
	paused, err := s.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return apperror.ErrSystemPaused()
	}
	return nil
}
