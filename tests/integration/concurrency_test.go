package integration

import (
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentDeposits fires concurrent native deposits against the ledger.
// Mutating operations are guarded by a non-blocking in-flight lock: a call
// arriving while another is outstanding is rejected with LGR_006 rather than
// queued. The test verifies that every request either fully lands or leaves
// no trace, and that the final state equals exactly the successful subset.
func TestConcurrentDeposits(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "0xalice", "StrongPass123!")

	const concurrency = 50
	// 1 native unit at 2000 USD: 2,000,000,000 internal units each.
	depositAmount := "1000000000000000000"
	perDepositValue := big.NewInt(2000000000)

	var wg sync.WaitGroup
	var successCount, rejectedCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, envelope := app.do(t, token, http.MethodPost, "/api/v1/ledger/deposits/native",
				fmt.Sprintf(`{"amount":%q}`, depositAmount))
			switch status {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusConflict:
				assert.Equal(t, "LGR_006", envelope["error_code"])
				rejectedCount.Add(1)
			default:
				t.Errorf("unexpected status %d: %v", status, envelope)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), successCount.Load()+rejectedCount.Load())
	require.Greater(t, successCount.Load(), int64(0))
	t.Logf("concurrent deposits: %d succeeded, %d rejected in flight", successCount.Load(), rejectedCount.Load())

	// Final state must equal exactly the successful subset.
	expectedValue := new(big.Int).Mul(perDepositValue, big.NewInt(successCount.Load()))
	expectedRaw := new(big.Int).Mul(bigFromDecimal(t, depositAmount), big.NewInt(successCount.Load()))

	status, envelope := app.do(t, token, http.MethodGet, "/api/v1/ledger/state", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, expectedValue.String(), data(t, envelope)["deposited_value"])

	status, envelope = app.do(t, token, http.MethodGet, "/api/v1/ledger/balances/native", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, expectedRaw.String(), data(t, envelope)["balance"])

	status, envelope = app.do(t, token, http.MethodGet, "/api/v1/ledger/balance", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, expectedValue.String(), data(t, envelope)["balance"])
}

// TestSequentialDepositsAllSucceed is the serialized control: with no
// overlap, every deposit lands.
func TestSequentialDepositsAllSucceed(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "0xbob", "StrongPass123!")

	const rounds = 20
	for i := 0; i < rounds; i++ {
		status, envelope := app.do(t, token, http.MethodPost, "/api/v1/ledger/deposits/native",
			`{"amount":"1000000000000000000"}`)
		require.Equal(t, http.StatusCreated, status, "round %d: %v", i, envelope)
	}

	status, envelope := app.do(t, token, http.MethodGet, "/api/v1/ledger/state", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "40000000000", data(t, envelope)["deposited_value"])
}

// TestConcurrentMixedOperations interleaves deposits and withdrawals and
// checks conservation: custody never holds less than the ledger says it owes.
func TestConcurrentMixedOperations(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "0xcarol", "StrongPass123!")

	// Seed a balance to withdraw from.
	status, _ := app.do(t, token, http.MethodPost, "/api/v1/ledger/deposits/native",
		`{"amount":"10000000000000000000"}`)
	require.Equal(t, http.StatusCreated, status)

	var wg sync.WaitGroup
	var deposited, withdrawn atomic.Int64

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if idx%2 == 0 {
				status, _ := app.do(t, token, http.MethodPost, "/api/v1/ledger/deposits/native",
					`{"amount":"1000000000000000000"}`)
				if status == http.StatusCreated {
					deposited.Add(1)
				}
			} else {
				status, _ := app.do(t, token, http.MethodPost, "/api/v1/ledger/withdrawals/native",
					`{"amount":"1000000000000000000"}`)
				if status == http.StatusCreated {
					withdrawn.Add(1)
				}
			}
		}(i)
	}
	wg.Wait()

	unit := bigFromDecimal(t, "1000000000000000000")
	expected := big.NewInt(10)
	expected.Add(expected, big.NewInt(deposited.Load()))
	expected.Sub(expected, big.NewInt(withdrawn.Load()))
	expected.Mul(expected, unit)

	status, envelope := app.do(t, token, http.MethodGet, "/api/v1/ledger/balances/native", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, expected.String(), data(t, envelope)["balance"])
}

func bigFromDecimal(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}
