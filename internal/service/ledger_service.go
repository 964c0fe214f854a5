package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports"
	"custody-ledger/pkg/apperror"
	"custody-ledger/pkg/numeric"

	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService.
//
// Every mutating operation runs under a single in-flight guard: the guard is
// held from before the first balance read until after the external custody or
// oracle call returns, and a second mutating call arriving in that window is
// rejected with ReentrantCall rather than queued. All internal bookkeeping is
// committed before custody is asked to move funds out, so a misbehaving
// custody counterparty can never observe stale balances.
type LedgerServiceImpl struct {
	balanceRepo ports.BalanceRepository
	stateRepo   ports.StateRepository
	eventRepo   ports.EventRepository
	registry    ports.RegistryService
	oracle      ports.OracleService
	access      ports.AccessService
	custody     ports.CustodyGateway
	transactor  ports.DBTransactor
	log         zerolog.Logger

	mu sync.Mutex // in-flight guard, acquired with TryLock
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	balanceRepo ports.BalanceRepository,
	stateRepo ports.StateRepository,
	eventRepo ports.EventRepository,
	registry ports.RegistryService,
	oracle ports.OracleService,
	access ports.AccessService,
	custody ports.CustodyGateway,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		balanceRepo: balanceRepo,
		stateRepo:   stateRepo,
		eventRepo:   eventRepo,
		registry:    registry,
		oracle:      oracle,
		access:      access,
		custody:     custody,
		transactor:  transactor,
		log:         log,
	}
}

// enter acquires the in-flight guard. Mutating calls are serialized; a call
// arriving while another is outstanding fails instead of waiting, which is
// what stops a custody callback from re-entering the ledger mid-operation.
func (s *LedgerServiceImpl) enter() error {
	if !s.mu.TryLock() {
		return apperror.ErrReentrantCall()
	}
	return nil
}

func (s *LedgerServiceImpl) checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return apperror.ErrZeroAmount()
	}
	if !numeric.InRange(amount) {
		return apperror.ErrArithmeticOverflow()
	}
	return nil
}

// DepositNative credits a native-currency deposit. The funds accompany the
// request, so no custody call is needed; the deposit fails atomically if the
// priced value would push the global counter over the cap.
func (s *LedgerServiceImpl) DepositNative(ctx context.Context, account domain.Address, amount *big.Int) (*domain.LedgerEvent, error) {
	if err := s.access.RequireNotPaused(ctx); err != nil {
		return nil, err
	}
	if err := s.checkAmount(amount); err != nil {
		return nil, err
	}
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	value, err := s.oracle.NativeToInternalValue(ctx, amount)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	state, err := s.stateRepo.GetForUpdate(ctx, dbTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock ledger state: %w", err))
	}

	newTotal, err := numeric.CheckedAdd(state.DepositedValue, value)
	if err != nil {
		return nil, err
	}
	if newTotal.Cmp(state.Cap) > 0 {
		return nil, apperror.ErrCapExceeded(state.DepositedValue, newTotal, state.Cap)
	}

	raw, err := s.balanceRepo.GetRawForUpdate(ctx, dbTx, domain.NativeAssetID, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock native balance: %w", err))
	}
	newRaw, err := numeric.CheckedAdd(raw, amount)
	if err != nil {
		return nil, err
	}

	internal, err := s.balanceRepo.GetInternalForUpdate(ctx, dbTx, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock internal balance: %w", err))
	}
	newInternal, err := numeric.CheckedAdd(internal, value)
	if err != nil {
		return nil, err
	}

	state.DepositedValue = newTotal
	if err := s.stateRepo.Update(ctx, dbTx, state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update ledger state: %w", err))
	}
	if err := s.balanceRepo.UpsertRaw(ctx, dbTx, domain.NativeAssetID, account, newRaw); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update native balance: %w", err))
	}
	if err := s.balanceRepo.UpsertInternal(ctx, dbTx, account, newInternal); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update internal balance: %w", err))
	}

	event := domain.NewLedgerEvent(domain.EventDepositCompleted)
	event.Account = account
	event.Asset = domain.NativeAssetID
	event.Amount = amount
	event.Value = value
	if err := s.eventRepo.CreateTx(ctx, dbTx, event); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record deposit event: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account", string(account)).
		Str("amount", amount.String()).
		Str("value", value.String()).
		Str("deposited_total", newTotal.String()).
		Msg("native deposit completed")

	return event, nil
}

// DepositAsset credits a token deposit. Custody pulls the amount from the
// depositor before the transaction commits; a failed pull rolls everything
// back and surfaces as TransferFailed.
func (s *LedgerServiceImpl) DepositAsset(ctx context.Context, account domain.Address, asset domain.AssetID, amount *big.Int) (*domain.LedgerEvent, error) {
	if err := s.access.RequireNotPaused(ctx); err != nil {
		return nil, err
	}
	if err := s.checkAmount(amount); err != nil {
		return nil, err
	}
	if asset.IsNative() || asset.IsZero() {
		return nil, apperror.ErrUnsupportedAsset(string(asset))
	}

	cfg, err := s.registry.Lookup(ctx, asset)
	if err != nil {
		return nil, err
	}
	if !cfg.Supported {
		return nil, apperror.ErrUnsupportedAsset(string(asset))
	}

	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	value, err := numeric.ToInternal(amount, cfg.Decimals)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	raw, err := s.balanceRepo.GetRawForUpdate(ctx, dbTx, asset, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock asset balance: %w", err))
	}
	newRaw, err := numeric.CheckedAdd(raw, amount)
	if err != nil {
		return nil, err
	}

	internal, err := s.balanceRepo.GetInternalForUpdate(ctx, dbTx, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock internal balance: %w", err))
	}
	newInternal, err := numeric.CheckedAdd(internal, value)
	if err != nil {
		return nil, err
	}

	if err := s.balanceRepo.UpsertRaw(ctx, dbTx, asset, account, newRaw); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update asset balance: %w", err))
	}
	if err := s.balanceRepo.UpsertInternal(ctx, dbTx, account, newInternal); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update internal balance: %w", err))
	}

	event := domain.NewLedgerEvent(domain.EventDepositCompleted)
	event.Account = account
	event.Asset = asset
	event.Amount = amount
	event.Value = value
	if err := s.eventRepo.CreateTx(ctx, dbTx, event); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record deposit event: %w", err))
	}

	// Pull before commit: a failed pull leaves no trace in the ledger.
	ok, err := s.custody.Pull(ctx, asset, account, amount)
	if err != nil {
		return nil, apperror.ErrTransferFailed(err)
	}
	if !ok {
		return nil, apperror.ErrTransferFailed(nil)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account", string(account)).
		Str("asset", string(asset)).
		Str("amount", amount.String()).
		Str("value", value.String()).
		Msg("asset deposit completed")

	return event, nil
}

// WithdrawNative debits a native-currency withdrawal. Raw balance is the
// authoritative eligibility check; the internal balance and the global
// deposited counter are decremented saturating at zero to absorb rounding
// drift. The debit is committed before custody is asked to send, so a failed
// send returns TransferFailed with the debit retained.
func (s *LedgerServiceImpl) WithdrawNative(ctx context.Context, account domain.Address, amount *big.Int) (*domain.LedgerEvent, error) {
	return s.withdraw(ctx, account, domain.NativeAssetID, amount)
}

// WithdrawAsset debits a token withdrawal. Identical to WithdrawNative except
// the global deposited counter is untouched: only native deposits count
// against the cap.
func (s *LedgerServiceImpl) WithdrawAsset(ctx context.Context, account domain.Address, asset domain.AssetID, amount *big.Int) (*domain.LedgerEvent, error) {
	if asset.IsNative() || asset.IsZero() {
		return nil, apperror.ErrUnsupportedAsset(string(asset))
	}
	return s.withdraw(ctx, account, asset, amount)
}

func (s *LedgerServiceImpl) withdraw(ctx context.Context, account domain.Address, asset domain.AssetID, amount *big.Int) (*domain.LedgerEvent, error) {
	if err := s.access.RequireNotPaused(ctx); err != nil {
		return nil, err
	}
	if err := s.checkAmount(amount); err != nil {
		return nil, err
	}

	var decimals uint8
	if asset.IsNative() {
		decimals = numeric.NativeDecimals
	} else {
		cfg, err := s.registry.Lookup(ctx, asset)
		if err != nil {
			return nil, err
		}
		if !cfg.Supported {
			return nil, apperror.ErrUnsupportedAsset(string(asset))
		}
		decimals = cfg.Decimals
	}

	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	// Value the withdrawal in internal units for the advisory counters.
	var value *big.Int
	var err error
	if asset.IsNative() {
		value, err = s.oracle.NativeToInternalValue(ctx, amount)
	} else {
		value, err = numeric.ToInternal(amount, decimals)
	}
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	raw, err := s.balanceRepo.GetRawForUpdate(ctx, dbTx, asset, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock balance: %w", err))
	}
	if raw.Cmp(amount) < 0 {
		return nil, apperror.ErrInsufficientBalance(amount, raw)
	}
	newRaw := new(big.Int).Sub(raw, amount)

	internal, err := s.balanceRepo.GetInternalForUpdate(ctx, dbTx, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock internal balance: %w", err))
	}
	newInternal := numeric.SubClamped(internal, value)

	if err := s.balanceRepo.UpsertRaw(ctx, dbTx, asset, account, newRaw); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.balanceRepo.UpsertInternal(ctx, dbTx, account, newInternal); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update internal balance: %w", err))
	}

	if asset.IsNative() {
		state, err := s.stateRepo.GetForUpdate(ctx, dbTx)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock ledger state: %w", err))
		}
		state.DepositedValue = numeric.SubClamped(state.DepositedValue, value)
		if err := s.stateRepo.Update(ctx, dbTx, state); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("update ledger state: %w", err))
		}
	}

	event := domain.NewLedgerEvent(domain.EventWithdrawalCompleted)
	event.Account = account
	event.Asset = asset
	event.Amount = amount
	event.Value = value
	if err := s.eventRepo.CreateTx(ctx, dbTx, event); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record withdrawal event: %w", err))
	}

	// Effects before external interaction: the debit is durable before
	// custody can run any code.
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	var ok bool
	if asset.IsNative() {
		ok, err = s.custody.Send(ctx, account, amount)
	} else {
		ok, err = s.custody.Push(ctx, asset, account, amount)
	}
	if err != nil {
		s.log.Error().Err(err).Str("account", string(account)).Str("asset", string(asset)).Msg("custody transfer failed after debit")
		return nil, apperror.ErrTransferFailed(err)
	}
	if !ok {
		s.log.Error().Str("account", string(account)).Str("asset", string(asset)).Msg("custody rejected transfer after debit")
		return nil, apperror.ErrTransferFailed(nil)
	}

	s.log.Info().
		Str("account", string(account)).
		Str("asset", string(asset)).
		Str("amount", amount.String()).
		Str("value", value.String()).
		Msg("withdrawal completed")

	return event, nil
}

// SetDepositCap updates the global native-deposit ceiling. Risk-manager only;
// unaffected by pause.
func (s *LedgerServiceImpl) SetDepositCap(ctx context.Context, caller domain.Address, cap *big.Int) error {
	if err := s.access.RequireRole(ctx, domain.RoleRiskManager, caller); err != nil {
		return err
	}
	if !numeric.InRange(cap) {
		return apperror.ErrArithmeticOverflow()
	}
	if err := s.stateRepo.SetCap(ctx, cap); err != nil {
		return apperror.InternalError(fmt.Errorf("set cap: %w", err))
	}

	event := domain.NewLedgerEvent(domain.EventCapUpdated)
	event.Account = caller
	event.Value = cap
	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.log.Warn().Err(err).Msg("failed to record cap update event")
	}

	s.log.Info().Str("cap", cap.String()).Str("by", string(caller)).Msg("deposit cap updated")
	return nil
}

// RawBalance returns the raw balance for (asset, account); zero if absent.
func (s *LedgerServiceImpl) RawBalance(ctx context.Context, asset domain.AssetID, account domain.Address) (*big.Int, error) {
	raw, err := s.balanceRepo.GetRaw(ctx, asset, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("raw balance: %w", err))
	}
	return raw, nil
}

// InternalBalance returns the account's aggregate internal-unit balance.
// Advisory data: it may drift from the true per-asset sum through rounding.
func (s *LedgerServiceImpl) InternalBalance(ctx context.Context, account domain.Address) (*big.Int, error) {
	v, err := s.balanceRepo.GetInternal(ctx, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("internal balance: %w", err))
	}
	return v, nil
}

// State returns the current global deposited value and cap.
func (s *LedgerServiceImpl) State(ctx context.Context) (*domain.LedgerState, error) {
	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("ledger state: %w", err))
	}
	return state, nil
}
