package domain

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates observable ledger state changes.
type EventType string

const (
	EventAssetConfigured     EventType = "asset-configured"
	EventDepositCompleted    EventType = "deposit-completed"
	EventWithdrawalCompleted EventType = "withdrawal-completed"
	EventCapUpdated          EventType = "cap-updated"
	EventPaused              EventType = "paused"
	EventUnpaused            EventType = "unpaused"
	EventRoleGranted         EventType = "role-granted"
)

// LedgerEvent is the audit record emitted for every state change. Amount
// and value are nil where not applicable (pause, role grants).
type LedgerEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	Account   Address   `json:"account,omitempty"`
	Asset     AssetID   `json:"asset,omitempty"`
	Amount    *big.Int  `json:"amount,omitempty"` // raw, native precision
	Value     *big.Int  `json:"value,omitempty"`  // internal units
	CreatedAt time.Time `json:"created_at"`
}

// NewLedgerEvent builds an event with a fresh id and timestamp.
func NewLedgerEvent(t EventType) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.New(),
		Type:      t,
		CreatedAt: time.Now().UTC(),
	}
}
