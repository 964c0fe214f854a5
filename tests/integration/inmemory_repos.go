package integration

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"custody-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ledgerStore is the shared in-memory backing for all ledger repos. A single
// mutex covers every map: the ledger service serializes mutating operations
// anyway, and reads are cheap.
type ledgerStore struct {
	mu        sync.RWMutex
	raw       map[string]*big.Int // asset|account -> raw balance
	internal  map[domain.Address]*big.Int
	state     *domain.LedgerState
	assets    map[domain.AssetID]*domain.AssetConfig
	roles     map[string]bool // role|account
	paused    bool
	accounts  map[domain.Address]*domain.Account
	events    []domain.LedgerEvent
	snapshots []*storeSnapshot
}

type storeSnapshot struct {
	raw      map[string]*big.Int
	internal map[domain.Address]*big.Int
	state    domain.LedgerState
	events   int
}

func newLedgerStore(initialCap *big.Int) *ledgerStore {
	return &ledgerStore{
		raw:      make(map[string]*big.Int),
		internal: make(map[domain.Address]*big.Int),
		state: &domain.LedgerState{
			DepositedValue: big.NewInt(0),
			Cap:            new(big.Int).Set(initialCap),
		},
		assets:   make(map[domain.AssetID]*domain.AssetConfig),
		roles:    make(map[string]bool),
		accounts: make(map[domain.Address]*domain.Account),
	}
}

func balanceKey(asset domain.AssetID, account domain.Address) string {
	return string(asset) + "|" + string(account)
}

func roleKey(role domain.Role, account domain.Address) string {
	return string(role) + "|" + string(account)
}

// snapshot captures transactional state (balances, ledger state, event log
// length) so a rolled-back transaction leaves no trace, mirroring what the
// real storage gets from postgres.
func (s *ledgerStore) snapshot() {
	snap := &storeSnapshot{
		raw:      make(map[string]*big.Int, len(s.raw)),
		internal: make(map[domain.Address]*big.Int, len(s.internal)),
		state: domain.LedgerState{
			DepositedValue: new(big.Int).Set(s.state.DepositedValue),
			Cap:            new(big.Int).Set(s.state.Cap),
		},
		events: len(s.events),
	}
	for k, v := range s.raw {
		snap.raw[k] = new(big.Int).Set(v)
	}
	for k, v := range s.internal {
		snap.internal[k] = new(big.Int).Set(v)
	}
	s.snapshots = append(s.snapshots, snap)
}

func (s *ledgerStore) commit() {
	if n := len(s.snapshots); n > 0 {
		s.snapshots = s.snapshots[:n-1]
	}
}

func (s *ledgerStore) rollback() {
	n := len(s.snapshots)
	if n == 0 {
		return
	}
	snap := s.snapshots[n-1]
	s.snapshots = s.snapshots[:n-1]
	s.raw = snap.raw
	s.internal = snap.internal
	s.state = &domain.LedgerState{
		DepositedValue: snap.state.DepositedValue,
		Cap:            snap.state.Cap,
	}
	s.events = s.events[:snap.events]
}

// --- Balance repo ---

type inMemoryBalanceRepo struct{ store *ledgerStore }

func (r *inMemoryBalanceRepo) getRaw(asset domain.AssetID, account domain.Address) *big.Int {
	if v, ok := r.store.raw[balanceKey(asset, account)]; ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func (r *inMemoryBalanceRepo) GetRaw(ctx context.Context, asset domain.AssetID, account domain.Address) (*big.Int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.getRaw(asset, account), nil
}

func (r *inMemoryBalanceRepo) GetRawForUpdate(ctx context.Context, tx pgx.Tx, asset domain.AssetID, account domain.Address) (*big.Int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.getRaw(asset, account), nil
}

func (r *inMemoryBalanceRepo) UpsertRaw(ctx context.Context, tx pgx.Tx, asset domain.AssetID, account domain.Address, amount *big.Int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.raw[balanceKey(asset, account)] = new(big.Int).Set(amount)
	return nil
}

func (r *inMemoryBalanceRepo) GetInternal(ctx context.Context, account domain.Address) (*big.Int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if v, ok := r.store.internal[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (r *inMemoryBalanceRepo) GetInternalForUpdate(ctx context.Context, tx pgx.Tx, account domain.Address) (*big.Int, error) {
	return r.GetInternal(ctx, account)
}

func (r *inMemoryBalanceRepo) UpsertInternal(ctx context.Context, tx pgx.Tx, account domain.Address, value *big.Int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.internal[account] = new(big.Int).Set(value)
	return nil
}

// --- State repo ---

type inMemoryStateRepo struct{ store *ledgerStore }

func (r *inMemoryStateRepo) Ensure(ctx context.Context, initialCap *big.Int) error {
	return nil
}

func (r *inMemoryStateRepo) get() *domain.LedgerState {
	return &domain.LedgerState{
		DepositedValue: new(big.Int).Set(r.store.state.DepositedValue),
		Cap:            new(big.Int).Set(r.store.state.Cap),
	}
}

func (r *inMemoryStateRepo) Get(ctx context.Context) (*domain.LedgerState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.get(), nil
}

func (r *inMemoryStateRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.LedgerState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.get(), nil
}

func (r *inMemoryStateRepo) Update(ctx context.Context, tx pgx.Tx, state *domain.LedgerState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.state = &domain.LedgerState{
		DepositedValue: new(big.Int).Set(state.DepositedValue),
		Cap:            new(big.Int).Set(state.Cap),
	}
	return nil
}

func (r *inMemoryStateRepo) SetCap(ctx context.Context, cap *big.Int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.state.Cap = new(big.Int).Set(cap)
	return nil
}

// --- Asset repo ---

type inMemoryAssetRepo struct{ store *ledgerStore }

func (r *inMemoryAssetRepo) Upsert(ctx context.Context, cfg *domain.AssetConfig) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *cfg
	r.store.assets[cfg.ID] = &c
	return nil
}

func (r *inMemoryAssetRepo) Get(ctx context.Context, id domain.AssetID) (*domain.AssetConfig, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	cfg, ok := r.store.assets[id]
	if !ok {
		return nil, nil
	}
	c := *cfg
	return &c, nil
}

// --- Access repo ---

type inMemoryAccessRepo struct{ store *ledgerStore }

func (r *inMemoryAccessRepo) GrantRole(ctx context.Context, role domain.Role, account domain.Address) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.roles[roleKey(role, account)] = true
	return nil
}

func (r *inMemoryAccessRepo) HasRole(ctx context.Context, role domain.Role, account domain.Address) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.roles[roleKey(role, account)], nil
}

func (r *inMemoryAccessRepo) IsPaused(ctx context.Context) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.paused, nil
}

func (r *inMemoryAccessRepo) SetPaused(ctx context.Context, paused bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.paused = paused
	return nil
}

// --- Account repo ---

type inMemoryAccountRepo struct{ store *ledgerStore }

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.accounts[account.Address]; ok {
		return fmt.Errorf("account already exists")
	}
	a := *account
	r.store.accounts[account.Address] = &a
	return nil
}

func (r *inMemoryAccountRepo) GetByAddress(ctx context.Context, address domain.Address) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.accounts[address]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

// --- Event repo ---

type inMemoryEventRepo struct{ store *ledgerStore }

func (r *inMemoryEventRepo) Create(ctx context.Context, event *domain.LedgerEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events = append(r.store.events, *event)
	return nil
}

func (r *inMemoryEventRepo) CreateTx(ctx context.Context, tx pgx.Tx, event *domain.LedgerEvent) error {
	return r.Create(ctx, event)
}

func (r *inMemoryEventRepo) List(ctx context.Context, limit int) ([]domain.LedgerEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]domain.LedgerEvent, 0, limit)
	for i := len(r.store.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.store.events[i])
	}
	return out, nil
}

// --- Transactor ---

// inMemoryTransactor snapshots the store on Begin so Rollback undoes the
// transaction's writes, matching postgres transaction semantics.
type inMemoryTransactor struct{ store *ledgerStore }

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.store.mu.Lock()
	t.store.snapshot()
	t.store.mu.Unlock()
	return &snapshotTx{store: t.store}, nil
}

// snapshotTx implements just enough of pgx.Tx for in-memory testing.
type snapshotTx struct {
	store *ledgerStore
	done  bool
}

func (t *snapshotTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if !t.done {
		t.store.commit()
		t.done = true
	}
	return nil
}

func (t *snapshotTx) Rollback(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if !t.done {
		t.store.rollback()
		t.done = true
	}
	return nil
}

func (t *snapshotTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *snapshotTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *snapshotTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *snapshotTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *snapshotTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *snapshotTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *snapshotTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *snapshotTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *snapshotTx) Conn() *pgx.Conn                                               { return nil }
