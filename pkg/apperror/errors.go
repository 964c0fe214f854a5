package apperror

import (
	"fmt"
	"math/big"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Logic (LGR) ----

func ErrZeroAmount() *AppError {
	return New("LGR_001", "Amount must be positive", http.StatusBadRequest)
}

func ErrUnsupportedAsset(asset string) *AppError {
	return New("LGR_002", fmt.Sprintf("Asset %s is not supported", asset), http.StatusBadRequest)
}

// ErrCapExceeded carries the counters observed when a native deposit would
// push the global deposited value over the configured cap.
func ErrCapExceeded(current, attempted, cap *big.Int) *AppError {
	return New("LGR_003",
		fmt.Sprintf("Deposit cap exceeded: current=%s attempted=%s cap=%s", current, attempted, cap),
		http.StatusUnprocessableEntity)
}

func ErrTransferFailed(err error) *AppError {
	return Wrap("LGR_004", "External asset transfer failed", http.StatusBadGateway, err)
}

func ErrInsufficientBalance(requested, available *big.Int) *AppError {
	return New("LGR_005",
		fmt.Sprintf("Insufficient balance: requested=%s available=%s", requested, available),
		http.StatusPaymentRequired)
}

func ErrReentrantCall() *AppError {
	return New("LGR_006", "Ledger operation already in flight", http.StatusConflict)
}

func ErrArithmeticOverflow() *AppError {
	return New("LGR_007", "Arithmetic overflow", http.StatusUnprocessableEntity)
}

// ---- Access Control (ACC) ----

func ErrUnauthorized(role string) *AppError {
	return New("ACC_001", fmt.Sprintf("Caller lacks required role %s", role), http.StatusForbidden)
}

func ErrSystemPaused() *AppError {
	return New("ACC_002", "System is paused", http.StatusServiceUnavailable)
}

// ---- Price Oracle (ORC) ----

func ErrStalePriceOrInvalid() *AppError {
	return New("ORC_001", "Oracle price is stale or invalid", http.StatusBadGateway)
}

// ---- Asset Registry (REG) ----

func ErrInvalidAddress() *AppError {
	return New("REG_001", "Null identifier supplied where a real one is required", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrAccountExists() *AppError {
	return New("AUTH_002", "Account already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrNotFound reports a missing entity.
func ErrNotFound(entity string) *AppError {
	return New("SYS_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("LGR_001", message, http.StatusBadRequest)
}
