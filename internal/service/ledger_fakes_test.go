package service

import (
	"context"
	"math/big"

	"custody-ledger/internal/core/domain"
	"custody-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// fakeLedgerDB backs the repository fakes with snapshot-based rollback so
// service tests observe real all-or-nothing semantics.
type fakeLedgerDB struct {
	raw      map[string]*big.Int // asset|account
	internal map[domain.Address]*big.Int
	state    domain.LedgerState
	events   []*domain.LedgerEvent
}

func newFakeLedgerDB(cap *big.Int) *fakeLedgerDB {
	return &fakeLedgerDB{
		raw:      make(map[string]*big.Int),
		internal: make(map[domain.Address]*big.Int),
		state: domain.LedgerState{
			DepositedValue: new(big.Int),
			Cap:            new(big.Int).Set(cap),
		},
	}
}

func (db *fakeLedgerDB) snapshot() *fakeLedgerDB {
	snap := &fakeLedgerDB{
		raw:      make(map[string]*big.Int, len(db.raw)),
		internal: make(map[domain.Address]*big.Int, len(db.internal)),
		state: domain.LedgerState{
			DepositedValue: new(big.Int).Set(db.state.DepositedValue),
			Cap:            new(big.Int).Set(db.state.Cap),
		},
		events: append([]*domain.LedgerEvent(nil), db.events...),
	}
	for k, v := range db.raw {
		snap.raw[k] = new(big.Int).Set(v)
	}
	for k, v := range db.internal {
		snap.internal[k] = new(big.Int).Set(v)
	}
	return snap
}

func (db *fakeLedgerDB) restore(snap *fakeLedgerDB) {
	db.raw = snap.raw
	db.internal = snap.internal
	db.state = snap.state
	db.events = snap.events
}

func balanceKey(asset domain.AssetID, account domain.Address) string {
	return string(asset) + "|" + string(account)
}

// fakeTx implements just enough of pgx.Tx for the service layer.
type fakeTx struct {
	pgx.Tx
	db   *fakeLedgerDB
	snap *fakeLedgerDB
	done bool
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.done = true
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if !t.done {
		t.db.restore(t.snap)
		t.done = true
	}
	return nil
}

type fakeTransactor struct {
	db *fakeLedgerDB
}

func (f *fakeTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	return &fakeTx{db: f.db, snap: f.db.snapshot()}, nil
}

type fakeBalanceRepo struct {
	db *fakeLedgerDB
}

func (r *fakeBalanceRepo) get(asset domain.AssetID, account domain.Address) *big.Int {
	if v, ok := r.db.raw[balanceKey(asset, account)]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (r *fakeBalanceRepo) GetRaw(_ context.Context, asset domain.AssetID, account domain.Address) (*big.Int, error) {
	return r.get(asset, account), nil
}

func (r *fakeBalanceRepo) GetRawForUpdate(_ context.Context, _ pgx.Tx, asset domain.AssetID, account domain.Address) (*big.Int, error) {
	return r.get(asset, account), nil
}

func (r *fakeBalanceRepo) UpsertRaw(_ context.Context, _ pgx.Tx, asset domain.AssetID, account domain.Address, amount *big.Int) error {
	r.db.raw[balanceKey(asset, account)] = new(big.Int).Set(amount)
	return nil
}

func (r *fakeBalanceRepo) GetInternal(_ context.Context, account domain.Address) (*big.Int, error) {
	if v, ok := r.db.internal[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (r *fakeBalanceRepo) GetInternalForUpdate(ctx context.Context, _ pgx.Tx, account domain.Address) (*big.Int, error) {
	return r.GetInternal(ctx, account)
}

func (r *fakeBalanceRepo) UpsertInternal(_ context.Context, _ pgx.Tx, account domain.Address, value *big.Int) error {
	r.db.internal[account] = new(big.Int).Set(value)
	return nil
}

type fakeStateRepo struct {
	db *fakeLedgerDB
}

func (r *fakeStateRepo) Ensure(_ context.Context, initialCap *big.Int) error {
	if r.db.state.Cap.Sign() == 0 {
		r.db.state.Cap = new(big.Int).Set(initialCap)
	}
	return nil
}

func (r *fakeStateRepo) copyState() *domain.LedgerState {
	return &domain.LedgerState{
		DepositedValue: new(big.Int).Set(r.db.state.DepositedValue),
		Cap:            new(big.Int).Set(r.db.state.Cap),
	}
}

func (r *fakeStateRepo) Get(_ context.Context) (*domain.LedgerState, error) {
	return r.copyState(), nil
}

func (r *fakeStateRepo) GetForUpdate(_ context.Context, _ pgx.Tx) (*domain.LedgerState, error) {
	return r.copyState(), nil
}

func (r *fakeStateRepo) Update(_ context.Context, _ pgx.Tx, state *domain.LedgerState) error {
	r.db.state.DepositedValue = new(big.Int).Set(state.DepositedValue)
	r.db.state.Cap = new(big.Int).Set(state.Cap)
	return nil
}

func (r *fakeStateRepo) SetCap(_ context.Context, cap *big.Int) error {
	r.db.state.Cap = new(big.Int).Set(cap)
	return nil
}

type fakeEventRepo struct {
	db *fakeLedgerDB
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.LedgerEvent) error {
	r.db.events = append(r.db.events, event)
	return nil
}

func (r *fakeEventRepo) CreateTx(_ context.Context, _ pgx.Tx, event *domain.LedgerEvent) error {
	r.db.events = append(r.db.events, event)
	return nil
}

func (r *fakeEventRepo) List(_ context.Context, limit int) ([]domain.LedgerEvent, error) {
	out := make([]domain.LedgerEvent, 0, limit)
	for i := len(r.db.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *r.db.events[i])
	}
	return out, nil
}

// fakeAccess implements ports.AccessService with in-memory role and pause state.
type fakeAccess struct {
	roles  map[string]bool // role|account
	paused bool
}

func newFakeAccess() *fakeAccess {
	return &fakeAccess{roles: make(map[string]bool)}
}

func (f *fakeAccess) grant(role domain.Role, account domain.Address) {
	f.roles[string(role)+"|"+string(account)] = true
}

func (f *fakeAccess) Bootstrap(_ context.Context, admin domain.Address) error {
	for _, role := range domain.AllRoles() {
		f.grant(role, admin)
	}
	return nil
}

func (f *fakeAccess) GrantRole(_ context.Context, _ domain.Address, role domain.Role, account domain.Address) error {
	f.grant(role, account)
	return nil
}

func (f *fakeAccess) HasRole(_ context.Context, role domain.Role, account domain.Address) (bool, error) {
	return f.roles[string(role)+"|"+string(account)], nil
}

func (f *fakeAccess) RequireRole(ctx context.Context, role domain.Role, account domain.Address) error {
	ok, _ := f.HasRole(ctx, role, account)
	if !ok {
		return apperror.ErrUnauthorized(string(role))
	}
	return nil
}

func (f *fakeAccess) Pause(_ context.Context, _ domain.Address) error   { f.paused = true; return nil }
func (f *fakeAccess) Unpause(_ context.Context, _ domain.Address) error { f.paused = false; return nil }
func (f *fakeAccess) Paused(_ context.Context) (bool, error)            { return f.paused, nil }

func (f *fakeAccess) RequireNotPaused(_ context.Context) error {
	if f.paused {
		return apperror.ErrSystemPaused()
	}
	return nil
}

// fakeRegistry implements ports.RegistryService with a static config table.
type fakeRegistry struct {
	configs map[domain.AssetID]*domain.AssetConfig
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{configs: make(map[domain.AssetID]*domain.AssetConfig)}
}

func (f *fakeRegistry) ConfigureAsset(_ context.Context, _ domain.Address, asset domain.AssetID, supported bool) (*domain.AssetConfig, error) {
	cfg := &domain.AssetConfig{ID: asset, Supported: supported, Decimals: 18}
	f.configs[asset] = cfg
	return cfg, nil
}

func (f *fakeRegistry) Lookup(_ context.Context, asset domain.AssetID) (*domain.AssetConfig, error) {
	if cfg, ok := f.configs[asset]; ok {
		return cfg, nil
	}
	return &domain.AssetConfig{ID: asset, Supported: false}, nil
}

// staticPriceSource returns a fixed quote without involving gomock, for
// tests where the price is scaffolding rather than the subject.
type staticPriceSource struct {
	point *domain.PricePoint
}

func (s *staticPriceSource) LatestRoundData(_ context.Context) (*domain.PricePoint, error) {
	return s.point, nil
}
