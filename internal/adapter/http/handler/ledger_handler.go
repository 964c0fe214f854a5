package handler

import (
	"strconv"
	"time"

	"custody-ledger/internal/adapter/http/dto"
	"custody-ledger/internal/adapter/http/middleware"
	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports"
	"custody-ledger/pkg/apperror"
	"custody-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler handles deposit, withdrawal, and query endpoints. The
// authenticated JWT address is the acting account for every operation.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
	accessSvc ports.AccessService
	oracleSvc ports.OracleService
	eventRepo ports.EventRepository
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService, accessSvc ports.AccessService, oracleSvc ports.OracleService, eventRepo ports.EventRepository) *LedgerHandler {
	return &LedgerHandler{
		ledgerSvc: ledgerSvc,
		accessSvc: accessSvc,
		oracleSvc: oracleSvc,
		eventRepo: eventRepo,
	}
}

func caller(c *gin.Context) (domain.Address, bool) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return "", false
	}
	return account, true
}

func toEventResponse(e *domain.LedgerEvent) dto.EventResponse {
	resp := dto.EventResponse{
		ID:        e.ID.String(),
		Type:      string(e.Type),
		Account:   string(e.Account),
		Asset:     string(e.Asset),
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.Amount != nil {
		resp.Amount = e.Amount.String()
	}
	if e.Value != nil {
		resp.Value = e.Value.String()
	}
	return resp
}

// DepositNative handles POST /api/v1/ledger/deposits/native.
func (h *LedgerHandler) DepositNative(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req dto.DepositNativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, ok := dto.ParseBig(req.Amount)
	if !ok {
		response.Error(c, apperror.Validation("amount must be a base-10 integer"))
		return
	}

	event, err := h.ledgerSvc.DepositNative(c.Request.Context(), account, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEventResponse(event))
}

// DepositAsset handles POST /api/v1/ledger/deposits/assets.
func (h *LedgerHandler) DepositAsset(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req dto.DepositAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, ok := dto.ParseBig(req.Amount)
	if !ok {
		response.Error(c, apperror.Validation("amount must be a base-10 integer"))
		return
	}

	event, err := h.ledgerSvc.DepositAsset(c.Request.Context(), account, domain.AssetID(req.Asset), amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEventResponse(event))
}

// WithdrawNative handles POST /api/v1/ledger/withdrawals/native.
func (h *LedgerHandler) WithdrawNative(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req dto.WithdrawNativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, ok := dto.ParseBig(req.Amount)
	if !ok {
		response.Error(c, apperror.Validation("amount must be a base-10 integer"))
		return
	}

	event, err := h.ledgerSvc.WithdrawNative(c.Request.Context(), account, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEventResponse(event))
}

// WithdrawAsset handles POST /api/v1/ledger/withdrawals/assets.
func (h *LedgerHandler) WithdrawAsset(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req dto.WithdrawAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, ok := dto.ParseBig(req.Amount)
	if !ok {
		response.Error(c, apperror.Validation("amount must be a base-10 integer"))
		return
	}

	event, err := h.ledgerSvc.WithdrawAsset(c.Request.Context(), account, domain.AssetID(req.Asset), amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEventResponse(event))
}

// GetRawBalance handles GET /api/v1/ledger/balances/:asset.
func (h *LedgerHandler) GetRawBalance(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	asset := domain.AssetID(c.Param("asset"))
	balance, err := h.ledgerSvc.RawBalance(c.Request.Context(), asset, account)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		Asset:   string(asset),
		Account: string(account),
		Balance: balance.String(),
	})
}

// GetInternalBalance handles GET /api/v1/ledger/balance.
func (h *LedgerHandler) GetInternalBalance(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	balance, err := h.ledgerSvc.InternalBalance(c.Request.Context(), account)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		Account: string(account),
		Balance: balance.String(),
	})
}

// GetState handles GET /api/v1/ledger/state.
func (h *LedgerHandler) GetState(c *gin.Context) {
	state, err := h.ledgerSvc.State(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	paused, err := h.accessSvc.Paused(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StateResponse{
		DepositedValue: state.DepositedValue.String(),
		Cap:            state.Cap.String(),
		Paused:         paused,
	})
}

// GetPrice handles GET /api/v1/ledger/price.
func (h *LedgerHandler) GetPrice(c *gin.Context) {
	price, err := h.oracleSvc.LatestPrice(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PriceResponse{
		Price:    price.Price.String(),
		Decimals: price.Decimals,
	})
}

// ListEvents handles GET /api/v1/ledger/events.
func (h *LedgerHandler) ListEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			response.Error(c, apperror.Validation("limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	events, err := h.eventRepo.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	out := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i]))
	}
	response.OK(c, out)
}
