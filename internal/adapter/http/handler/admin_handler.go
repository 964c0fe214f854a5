package handler

import (
	"custody-ledger/internal/adapter/http/dto"
	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports"
	"custody-ledger/pkg/apperror"
	"custody-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles asset registry, cap, pause, and role endpoints.
// Authorization is enforced by the services against the caller's roles, not
// by routing: any authenticated account may hit these routes and be refused.
type AdminHandler struct {
	registrySvc ports.RegistryService
	ledgerSvc   ports.LedgerService
	accessSvc   ports.AccessService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(registrySvc ports.RegistryService, ledgerSvc ports.LedgerService, accessSvc ports.AccessService) *AdminHandler {
	return &AdminHandler{
		registrySvc: registrySvc,
		ledgerSvc:   ledgerSvc,
		accessSvc:   accessSvc,
	}
}

// ConfigureAsset handles PUT /api/v1/admin/assets.
func (h *AdminHandler) ConfigureAsset(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req dto.ConfigureAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	cfg, err := h.registrySvc.ConfigureAsset(c.Request.Context(), account, domain.AssetID(req.Asset), *req.Supported)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AssetResponse{
		Asset:     string(cfg.ID),
		Supported: cfg.Supported,
		Decimals:  cfg.Decimals,
	})
}

// GetAsset handles GET /api/v1/admin/assets/:asset.
func (h *AdminHandler) GetAsset(c *gin.Context) {
	cfg, err := h.registrySvc.Lookup(c.Request.Context(), domain.AssetID(c.Param("asset")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AssetResponse{
		Asset:     string(cfg.ID),
		Supported: cfg.Supported,
		Decimals:  cfg.Decimals,
	})
}

// SetCap handles PUT /api/v1/admin/cap.
func (h *AdminHandler) SetCap(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req dto.SetCapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cap, ok := dto.ParseBig(req.Cap)
	if !ok {
		response.Error(c, apperror.Validation("cap must be a base-10 integer"))
		return
	}

	if err := h.ledgerSvc.SetDepositCap(c.Request.Context(), account, cap); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"cap": cap.String()})
}

// Pause handles POST /api/v1/admin/pause.
func (h *AdminHandler) Pause(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	if err := h.accessSvc.Pause(c.Request.Context(), account); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"paused": true})
}

// Unpause handles POST /api/v1/admin/unpause.
func (h *AdminHandler) Unpause(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	if err := h.accessSvc.Unpause(c.Request.Context(), account); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"paused": false})
}

// GrantRole handles POST /api/v1/admin/roles.
func (h *AdminHandler) GrantRole(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req dto.GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	err := h.accessSvc.GrantRole(c.Request.Context(), account, domain.Role(req.Role), domain.Address(req.Account))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"role": req.Role, "account": req.Account})
}
