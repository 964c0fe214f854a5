package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	custodyAdapter "custody-ledger/internal/adapter/custody"
	httpHandler "custody-ledger/internal/adapter/http/handler"
	oracleAdapter "custody-ledger/internal/adapter/oracle"
	redisStorage "custody-ledger/internal/adapter/storage/redis"
	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/service"
	"custody-ledger/pkg/logger"
	"custody-ledger/pkg/numeric"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminAddr = "0xadmin"
	adminPass = "AdminPass123!"

	// 2000 USD per native unit, quoted with 8 decimals.
	testPriceQuote = "200000000000"
	// 1,000,000 USD cap in internal units.
	initialCap = "1000000000000"
)

// testApp wires the full stack behind httptest servers: real HTTP layer,
// middleware, handlers, services, price cache over miniredis, and the real
// oracle/custody HTTP clients pointed at stub upstreams. Only postgres is
// replaced, by the in-memory repos.
type testApp struct {
	server  *httptest.Server
	oracle  *httptest.Server
	custody *httptest.Server
	redis   *miniredis.Miniredis
	store   *ledgerStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Stub price feed: fixed quote.
	oracleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"price":%q,"decimals":8}`, testPriceQuote)
	}))

	// Stub custody node: every transfer succeeds, every asset has 18 decimals.
	custodySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"decimals":18}`)
			return
		}
		fmt.Fprint(w, `{"success":true}`)
	}))

	log := logger.New("debug", false)
	store := newLedgerStore(numeric.MustParse(initialCap))

	balanceRepo := &inMemoryBalanceRepo{store: store}
	stateRepo := &inMemoryStateRepo{store: store}
	assetRepo := &inMemoryAssetRepo{store: store}
	accessRepo := &inMemoryAccessRepo{store: store}
	accountRepo := &inMemoryAccountRepo{store: store}
	eventRepo := &inMemoryEventRepo{store: store}
	transactor := &inMemoryTransactor{store: store}

	custodyClient := custodyAdapter.NewClient(custodySrv.URL, 5*time.Second, log)
	oracleClient := oracleAdapter.NewClient(oracleSrv.URL, 5*time.Second, log)
	priceCache := redisStorage.NewPriceCache(rdb)

	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")
	auditSvc := service.NewAuditService(eventRepo, log)

	accessSvc := service.NewAccessService(accessRepo, auditSvc, log)
	require.NoError(t, accessSvc.Bootstrap(context.Background(), domain.Address(adminAddr)))

	registrySvc := service.NewRegistryService(assetRepo, custodyClient, accessSvc, auditSvc, log)
	oracleSvc := service.NewOracleService(oracleClient, priceCache, 3*time.Second, log)
	ledgerSvc := service.NewLedgerService(
		balanceRepo, stateRepo, eventRepo,
		registrySvc, oracleSvc, accessSvc,
		custodyClient, transactor, log,
	)
	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:     authSvc,
		LedgerSvc:   ledgerSvc,
		AccessSvc:   accessSvc,
		RegistrySvc: registrySvc,
		OracleSvc:   oracleSvc,
		EventRepo:   eventRepo,
		TokenSvc:    tokenSvc,
		Logger:      log,
	})

	return &testApp{
		server:  httptest.NewServer(router),
		oracle:  oracleSrv,
		custody: custodySrv,
		redis:   mr,
		store:   store,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.oracle.Close()
	a.custody.Close()
	a.redis.Close()
}

// register creates an account and returns a bearer token for it.
func (a *testApp) register(t *testing.T, address, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"address": address, "password": password})
	resp, err := http.Post(a.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Post(a.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResult struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResult))
	resp.Body.Close()
	require.NotEmpty(t, loginResult.Data.Token)
	return loginResult.Data.Token
}

// do issues an authenticated JSON request and decodes the response envelope.
func (a *testApp) do(t *testing.T, token, method, path, body string) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

func data(t *testing.T, envelope map[string]any) map[string]any {
	t.Helper()
	d, ok := envelope["data"].(map[string]any)
	require.True(t, ok, "expected data object in %v", envelope)
	return d
}

// --- Integration tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "0xalice", "StrongPass123!")
	require.NotEmpty(t, token)

	// Duplicate registration is rejected.
	body, _ := json.Marshal(map[string]string{"address": "0xalice", "password": "StrongPass123!"})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIntegration_RequiresAuth(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, envelope := app.do(t, "not-a-token", http.MethodGet, "/api/v1/ledger/state", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_003", envelope["error_code"])
}

func TestIntegration_NativeDepositFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "0xalice", "StrongPass123!")

	// Deposit 400 native units (2000 USD each): 800,000 USD in internal units.
	status, envelope := app.do(t, token, http.MethodPost, "/api/v1/ledger/deposits/native",
		`{"amount":"400000000000000000000"}`)
	require.Equal(t, http.StatusCreated, status)
	event := data(t, envelope)
	assert.Equal(t, "deposit-completed", event["type"])
	assert.Equal(t, "800000000000", event["value"])

	// Raw balance reflects the full native amount.
	status, envelope = app.do(t, token, http.MethodGet, "/api/v1/ledger/balances/native", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "400000000000000000000", data(t, envelope)["balance"])

	// Internal balance and global state carry the priced value.
	status, envelope = app.do(t, token, http.MethodGet, "/api/v1/ledger/balance", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "800000000000", data(t, envelope)["balance"])

	status, envelope = app.do(t, token, http.MethodGet, "/api/v1/ledger/state", "")
	require.Equal(t, http.StatusOK, status)
	state := data(t, envelope)
	assert.Equal(t, "800000000000", state["deposited_value"])
	assert.Equal(t, initialCap, state["cap"])
	assert.Equal(t, false, state["paused"])

	// The quote the deposit was priced with is queryable.
	status, envelope = app.do(t, token, http.MethodGet, "/api/v1/ledger/price", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, testPriceQuote, data(t, envelope)["price"])

	// A second identical deposit would reach 1.6M USD, over the 1M cap.
	status, envelope = app.do(t, token, http.MethodPost, "/api/v1/ledger/deposits/native",
		`{"amount":"400000000000000000000"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "LGR_003", envelope["error_code"])

	// The rejected deposit left no trace.
	status, envelope = app.do(t, token, http.MethodGet, "/api/v1/ledger/balances/native", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "400000000000000000000", data(t, envelope)["balance"])
}

func TestIntegration_AssetDepositAndWithdraw(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	adminToken := app.register(t, adminAddr, adminPass)
	userToken := app.register(t, "0xbob", "StrongPass123!")

	// Unknown assets are rejected until the administrator registers them.
	status, envelope := app.do(t, userToken, http.MethodPost, "/api/v1/ledger/deposits/assets",
		`{"asset":"0xtoken","amount":"5000000000000000000"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "LGR_002", envelope["error_code"])

	// Non-admins cannot register assets.
	status, envelope = app.do(t, userToken, http.MethodPut, "/api/v1/admin/assets",
		`{"asset":"0xtoken","supported":true}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ACC_001", envelope["error_code"])

	status, envelope = app.do(t, adminToken, http.MethodPut, "/api/v1/admin/assets",
		`{"asset":"0xtoken","supported":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(18), data(t, envelope)["decimals"])

	// Deposit and withdraw; asset flows never touch the native deposit cap.
	status, envelope = app.do(t, userToken, http.MethodPost, "/api/v1/ledger/deposits/assets",
		`{"asset":"0xtoken","amount":"5000000000000000000"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "deposit-completed", data(t, envelope)["type"])

	status, envelope = app.do(t, userToken, http.MethodGet, "/api/v1/ledger/state", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", data(t, envelope)["deposited_value"])

	status, envelope = app.do(t, userToken, http.MethodPost, "/api/v1/ledger/withdrawals/assets",
		`{"asset":"0xtoken","amount":"2000000000000000000"}`)
	require.Equal(t, http.StatusCreated, status)

	status, envelope = app.do(t, userToken, http.MethodGet, "/api/v1/ledger/balances/0xtoken", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "3000000000000000000", data(t, envelope)["balance"])

	// Overdraft is refused.
	status, envelope = app.do(t, userToken, http.MethodPost, "/api/v1/ledger/withdrawals/assets",
		`{"asset":"0xtoken","amount":"99000000000000000000"}`)
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "LGR_005", envelope["error_code"])
}

func TestIntegration_PauseBlocksLedger(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	adminToken := app.register(t, adminAddr, adminPass)
	userToken := app.register(t, "0xalice", "StrongPass123!")

	status, _ := app.do(t, adminToken, http.MethodPost, "/api/v1/admin/pause", "")
	require.Equal(t, http.StatusOK, status)

	status, envelope := app.do(t, userToken, http.MethodPost, "/api/v1/ledger/deposits/native",
		`{"amount":"1000000000000000000"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "ACC_002", envelope["error_code"])

	// Cap changes stay available during the halt.
	status, _ = app.do(t, adminToken, http.MethodPut, "/api/v1/admin/cap", `{"cap":"2000000000000"}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = app.do(t, adminToken, http.MethodPost, "/api/v1/admin/unpause", "")
	require.Equal(t, http.StatusOK, status)

	status, envelope = app.do(t, userToken, http.MethodPost, "/api/v1/ledger/deposits/native",
		`{"amount":"1000000000000000000"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2000000000", data(t, envelope)["value"])
}

func TestIntegration_RoleGrantAndCap(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	adminToken := app.register(t, adminAddr, adminPass)
	userToken := app.register(t, "0xrisk", "StrongPass123!")

	// Cap changes need the risk-manager role.
	status, envelope := app.do(t, userToken, http.MethodPut, "/api/v1/admin/cap", `{"cap":"5"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ACC_001", envelope["error_code"])

	status, _ = app.do(t, adminToken, http.MethodPost, "/api/v1/admin/roles",
		`{"role":"risk-manager","account":"0xrisk"}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = app.do(t, userToken, http.MethodPut, "/api/v1/admin/cap", `{"cap":"5000000000000"}`)
	require.Equal(t, http.StatusOK, status)

	status, envelope = app.do(t, userToken, http.MethodGet, "/api/v1/ledger/state", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "5000000000000", data(t, envelope)["cap"])
}

func TestIntegration_EventLog(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "0xalice", "StrongPass123!")

	status, _ := app.do(t, token, http.MethodPost, "/api/v1/ledger/deposits/native",
		`{"amount":"1000000000000000000"}`)
	require.Equal(t, http.StatusCreated, status)

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/ledger/events?limit=10", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotEmpty(t, envelope.Data)
	// Newest first: the deposit precedes the bootstrap role grants.
	assert.Equal(t, "deposit-completed", envelope.Data[0]["type"])
}
