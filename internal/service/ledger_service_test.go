package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports/mocks"
	"custody-ledger/pkg/apperror"
	"custody-ledger/pkg/numeric"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	alice = domain.Address("0xalice")
	bob   = domain.Address("0xbob")
	token = domain.AssetID("0xtoken")
	risk  = domain.Address("0xrisk")
)

// price of one native unit: 2000 USD quoted with 8 decimals.
var testPrice = &domain.PricePoint{Price: numeric.MustParse("200000000000"), Decimals: 8}

type ledgerTestDeps struct {
	svc      *LedgerServiceImpl
	db       *fakeLedgerDB
	access   *fakeAccess
	registry *fakeRegistry
	custody  *mocks.MockCustodyGateway
	ctrl     *gomock.Controller
}

// setupLedger wires a ledger with cap = 1,000,000 whole internal units and a
// fixed 2000 USD native price.
func setupLedger(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	cap := mulPow10(1_000_000, numeric.InternalDecimals)

	db := newFakeLedgerDB(cap)
	access := newFakeAccess()
	access.grant(domain.RoleRiskManager, risk)
	registry := newFakeRegistry()
	registry.configs[token] = &domain.AssetConfig{ID: token, Supported: true, Decimals: 18}

	oracle := NewOracleService(&staticPriceSource{point: testPrice}, nil, 0, zerolog.Nop())
	custody := mocks.NewMockCustodyGateway(ctrl)

	svc := NewLedgerService(
		&fakeBalanceRepo{db: db},
		&fakeStateRepo{db: db},
		&fakeEventRepo{db: db},
		registry,
		oracle,
		access,
		custody,
		&fakeTransactor{db: db},
		zerolog.Nop(),
	)

	return &ledgerTestDeps{svc: svc, db: db, access: access, registry: registry, custody: custody, ctrl: ctrl}
}

func mulPow10(n int64, decimals uint8) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), numeric.Pow10(decimals))
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

// ==================== DepositNative ====================

func TestLedger_DepositNative_Success(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// 400 native units at 2000 USD -> 800,000 whole internal units.
	event, err := d.svc.DepositNative(ctx, alice, mulPow10(400, 18))
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, domain.EventDepositCompleted, event.Type)
	assert.Equal(t, mulPow10(800_000, 6), event.Value)

	assert.Equal(t, mulPow10(400, 18), d.db.raw[balanceKey(domain.NativeAssetID, alice)])
	assert.Equal(t, mulPow10(800_000, 6), d.db.internal[alice])
	assert.Equal(t, mulPow10(800_000, 6), d.db.state.DepositedValue)
}

func TestLedger_DepositNative_ZeroAmount(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()

	_, err := d.svc.DepositNative(context.Background(), alice, big.NewInt(0))
	assertCode(t, err, "LGR_001")

	_, err = d.svc.DepositNative(context.Background(), alice, nil)
	assertCode(t, err, "LGR_001")
}

func TestLedger_DepositNative_CapExceeded_NoStateChange(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// First deposit: 400 units -> 800,000, inside the 1,000,000 cap.
	_, err := d.svc.DepositNative(ctx, alice, mulPow10(400, 18))
	require.NoError(t, err)

	// Second deposit: 300 units -> 600,000; 1,400,000 > cap.
	before := d.db.snapshot()
	_, err = d.svc.DepositNative(ctx, bob, mulPow10(300, 18))
	assertCode(t, err, "LGR_003")
	assert.Contains(t, err.Error(), "current=800000000000")
	assert.Contains(t, err.Error(), "attempted=1400000000000")
	assert.Contains(t, err.Error(), "cap=1000000000000")

	// No partial state change.
	assert.Equal(t, before.state.DepositedValue, d.db.state.DepositedValue)
	assert.Empty(t, d.db.raw[balanceKey(domain.NativeAssetID, bob)])
	assert.Nil(t, d.db.internal[bob])
}

func TestLedger_DepositNative_CapNeverExceededAcrossSequence(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.custody.EXPECT().Send(ctx, alice, gomock.Any()).Return(true, nil).AnyTimes()

	deposits := []int64{100, 200, 150}
	for _, n := range deposits {
		_, err := d.svc.DepositNative(ctx, alice, mulPow10(n, 18))
		require.NoError(t, err)
		assert.True(t, d.db.state.DepositedValue.Cmp(d.db.state.Cap) <= 0)
	}
	_, err := d.svc.WithdrawNative(ctx, alice, mulPow10(50, 18))
	require.NoError(t, err)
	assert.True(t, d.db.state.DepositedValue.Cmp(d.db.state.Cap) <= 0)
}

// ==================== DepositAsset ====================

func TestLedger_DepositAsset_Success(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// 0.005 units of an 18-decimal asset -> 5000 internal units.
	amount := numeric.MustParse("5000000000000000")
	d.custody.EXPECT().Pull(ctx, token, alice, amount).Return(true, nil)

	event, err := d.svc.DepositAsset(ctx, alice, token, amount)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5000), event.Value)
	assert.Equal(t, amount, d.db.raw[balanceKey(token, alice)])
	assert.Equal(t, big.NewInt(5000), d.db.internal[alice])

	// Token deposits never touch the native cap counter.
	assert.Equal(t, int64(0), d.db.state.DepositedValue.Int64())
}

func TestLedger_DepositAsset_Unsupported(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()

	_, err := d.svc.DepositAsset(context.Background(), alice, "0xunknown", big.NewInt(100))
	assertCode(t, err, "LGR_002")
}

func TestLedger_DepositAsset_PullFails_RollsBack(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	amount := mulPow10(1, 18)
	d.custody.EXPECT().Pull(ctx, token, alice, amount).Return(false, nil)

	_, err := d.svc.DepositAsset(ctx, alice, token, amount)
	assertCode(t, err, "LGR_004")

	// All increments rolled back.
	assert.Empty(t, d.db.raw[balanceKey(token, alice)])
	assert.Nil(t, d.db.internal[alice])
	assert.Empty(t, d.db.events)
}

func TestLedger_DepositAsset_PullError_RollsBack(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	amount := mulPow10(1, 18)
	d.custody.EXPECT().Pull(ctx, token, alice, amount).Return(false, errors.New("node timeout"))

	_, err := d.svc.DepositAsset(ctx, alice, token, amount)
	assertCode(t, err, "LGR_004")
	assert.Empty(t, d.db.raw[balanceKey(token, alice)])
}

// ==================== WithdrawNative ====================

func TestLedger_WithdrawNative_Success(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.DepositNative(ctx, alice, mulPow10(400, 18))
	require.NoError(t, err)

	amount := mulPow10(100, 18)
	d.custody.EXPECT().Send(ctx, alice, amount).Return(true, nil)

	event, err := d.svc.WithdrawNative(ctx, alice, amount)
	require.NoError(t, err)
	assert.Equal(t, domain.EventWithdrawalCompleted, event.Type)

	assert.Equal(t, mulPow10(300, 18), d.db.raw[balanceKey(domain.NativeAssetID, alice)])
	// 100 units at 2000 USD -> 200,000 internal units released from the cap.
	assert.Equal(t, mulPow10(600_000, 6), d.db.state.DepositedValue)
	assert.Equal(t, mulPow10(600_000, 6), d.db.internal[alice])
}

func TestLedger_WithdrawNative_Insufficient_NoStateChange(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.DepositNative(ctx, alice, mulPow10(10, 18))
	require.NoError(t, err)
	before := d.db.snapshot()

	_, err = d.svc.WithdrawNative(ctx, alice, mulPow10(11, 18))
	assertCode(t, err, "LGR_005")
	assert.Contains(t, err.Error(), "requested=11000000000000000000")
	assert.Contains(t, err.Error(), "available=10000000000000000000")

	assert.Equal(t, before.raw, d.db.raw)
	assert.Equal(t, before.state.DepositedValue, d.db.state.DepositedValue)
}

func TestLedger_WithdrawNative_SendFails_DebitRetained(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.DepositNative(ctx, alice, mulPow10(400, 18))
	require.NoError(t, err)

	amount := mulPow10(100, 18)
	d.custody.EXPECT().Send(ctx, alice, amount).Return(false, nil)

	_, err = d.svc.WithdrawNative(ctx, alice, amount)
	assertCode(t, err, "LGR_004")

	// The internal debit was committed before the external send.
	assert.Equal(t, mulPow10(300, 18), d.db.raw[balanceKey(domain.NativeAssetID, alice)])
	assert.Equal(t, mulPow10(600_000, 6), d.db.state.DepositedValue)
}

func TestLedger_WithdrawNative_InternalBalanceSaturates(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.DepositNative(ctx, alice, mulPow10(100, 18))
	require.NoError(t, err)

	// Force drift: shrink the tracked internal balance below the true value.
	d.db.internal[alice] = big.NewInt(1)

	amount := mulPow10(100, 18)
	d.custody.EXPECT().Send(ctx, alice, amount).Return(true, nil)

	_, err = d.svc.WithdrawNative(ctx, alice, amount)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.db.internal[alice].Int64())
}

// ==================== WithdrawAsset ====================

func TestLedger_WithdrawAsset_Success_CapUntouched(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	amount := mulPow10(2, 18)
	d.custody.EXPECT().Pull(ctx, token, alice, amount).Return(true, nil)
	_, err := d.svc.DepositAsset(ctx, alice, token, amount)
	require.NoError(t, err)

	half := mulPow10(1, 18)
	d.custody.EXPECT().Push(ctx, token, alice, half).Return(true, nil)

	_, err = d.svc.WithdrawAsset(ctx, alice, token, half)
	require.NoError(t, err)
	assert.Equal(t, half, d.db.raw[balanceKey(token, alice)])
	assert.Equal(t, int64(0), d.db.state.DepositedValue.Int64())
}

func TestLedger_WithdrawAsset_Unsupported(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()

	_, err := d.svc.WithdrawAsset(context.Background(), alice, "0xunknown", big.NewInt(1))
	assertCode(t, err, "LGR_002")
}

// ==================== Conservation ====================

func TestLedger_Conservation_RawBalancesMatchCustody(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// Track what custody actually received/released for the token.
	custodyHeld := new(big.Int)
	d.custody.EXPECT().Pull(ctx, token, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.AssetID, _ domain.Address, amt *big.Int) (bool, error) {
			custodyHeld.Add(custodyHeld, amt)
			return true, nil
		}).AnyTimes()
	d.custody.EXPECT().Push(ctx, token, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.AssetID, _ domain.Address, amt *big.Int) (bool, error) {
			custodyHeld.Sub(custodyHeld, amt)
			return true, nil
		}).AnyTimes()

	for _, op := range []struct {
		account  domain.Address
		deposit  int64
		withdraw int64
	}{
		{alice, 5, 2},
		{bob, 7, 7},
		{alice, 3, 0},
	} {
		_, err := d.svc.DepositAsset(ctx, op.account, token, mulPow10(op.deposit, 18))
		require.NoError(t, err)
		if op.withdraw > 0 {
			_, err = d.svc.WithdrawAsset(ctx, op.account, token, mulPow10(op.withdraw, 18))
			require.NoError(t, err)
		}
	}

	ledgerSum := new(big.Int)
	ledgerSum.Add(ledgerSum, d.db.raw[balanceKey(token, alice)])
	ledgerSum.Add(ledgerSum, d.db.raw[balanceKey(token, bob)])
	assert.Equal(t, custodyHeld, ledgerSum)
}

// ==================== Pause ====================

func TestLedger_Paused_RejectsMutations_AllowsConfig(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()
	d.access.paused = true

	_, err := d.svc.DepositNative(ctx, alice, mulPow10(1, 18))
	assertCode(t, err, "ACC_002")
	_, err = d.svc.DepositAsset(ctx, alice, token, mulPow10(1, 18))
	assertCode(t, err, "ACC_002")
	_, err = d.svc.WithdrawNative(ctx, alice, mulPow10(1, 18))
	assertCode(t, err, "ACC_002")
	_, err = d.svc.WithdrawAsset(ctx, alice, token, mulPow10(1, 18))
	assertCode(t, err, "ACC_002")

	// Cap updates remain available during the halt.
	err = d.svc.SetDepositCap(ctx, risk, mulPow10(5_000_000, 6))
	require.NoError(t, err)
	assert.Equal(t, mulPow10(5_000_000, 6), d.db.state.Cap)
}

// ==================== SetDepositCap ====================

func TestLedger_SetDepositCap_RequiresRiskManager(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()

	err := d.svc.SetDepositCap(context.Background(), alice, mulPow10(1, 6))
	assertCode(t, err, "ACC_001")
}

func TestLedger_SetDepositCap_RecordsEvent(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()

	err := d.svc.SetDepositCap(context.Background(), risk, mulPow10(2_000_000, 6))
	require.NoError(t, err)
	require.NotEmpty(t, d.db.events)
	assert.Equal(t, domain.EventCapUpdated, d.db.events[len(d.db.events)-1].Type)
}

// ==================== Reentrancy ====================

func TestLedger_Reentrancy_NestedWithdrawRejected(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.DepositNative(ctx, alice, mulPow10(400, 18))
	require.NoError(t, err)

	amount := mulPow10(100, 18)
	var nestedErr error
	d.custody.EXPECT().Send(ctx, alice, amount).
		DoAndReturn(func(ctx context.Context, account domain.Address, amt *big.Int) (bool, error) {
			// A malicious custody counterparty tries to withdraw again
			// from inside the send callback.
			_, nestedErr = d.svc.WithdrawNative(ctx, account, amt)
			return true, nil
		})

	_, err = d.svc.WithdrawNative(ctx, alice, amount)
	require.NoError(t, err)

	assertCode(t, nestedErr, "LGR_006")
	// The outer debit happened exactly once.
	assert.Equal(t, mulPow10(300, 18), d.db.raw[balanceKey(domain.NativeAssetID, alice)])
	assert.Equal(t, mulPow10(600_000, 6), d.db.state.DepositedValue)
}

// ==================== Reads ====================

func TestLedger_Reads(t *testing.T) {
	d := setupLedger(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.DepositNative(ctx, alice, mulPow10(400, 18))
	require.NoError(t, err)

	raw, err := d.svc.RawBalance(ctx, domain.NativeAssetID, alice)
	require.NoError(t, err)
	assert.Equal(t, mulPow10(400, 18), raw)

	internal, err := d.svc.InternalBalance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, mulPow10(800_000, 6), internal)

	state, err := d.svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, mulPow10(800_000, 6), state.DepositedValue)
	assert.Equal(t, mulPow10(1_000_000, 6), state.Cap)

	// Unknown keys read as zero, not as errors.
	raw, err = d.svc.RawBalance(ctx, token, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), raw.Int64())
}
