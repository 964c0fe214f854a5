package postgres

import (
	"context"
	"fmt"

	"custody-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EventRepository. Amount and value columns are
// nullable: pause and role events carry neither.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

const insertEventQuery = `INSERT INTO ledger_events (id, type, account, asset, amount, value, created_at)
	VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)`

func eventArgs(e *domain.LedgerEvent) []any {
	var amount, value *string
	if e.Amount != nil {
		s := e.Amount.String()
		amount = &s
	}
	if e.Value != nil {
		s := e.Value.String()
		value = &s
	}
	return []any{e.ID, e.Type, e.Account, e.Asset, amount, value, e.CreatedAt}
}

// Create inserts an event outside any transaction.
func (r *EventRepo) Create(ctx context.Context, event *domain.LedgerEvent) error {
	if _, err := r.pool.Exec(ctx, insertEventQuery, eventArgs(event)...); err != nil {
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

// CreateTx inserts an event inside the caller's transaction, so the event
// commits or rolls back with the balance change it describes.
func (r *EventRepo) CreateTx(ctx context.Context, tx pgx.Tx, event *domain.LedgerEvent) error {
	if _, err := tx.Exec(ctx, insertEventQuery, eventArgs(event)...); err != nil {
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

// List returns the most recent events, newest first.
func (r *EventRepo) List(ctx context.Context, limit int) ([]domain.LedgerEvent, error) {
	query := `SELECT id, type, account, asset, amount::text, value::text, created_at
		FROM ledger_events ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	defer rows.Close()

	var events []domain.LedgerEvent
	for rows.Next() {
		var e domain.LedgerEvent
		var amount, value *string
		if err := rows.Scan(&e.ID, &e.Type, &e.Account, &e.Asset, &amount, &value, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		if amount != nil {
			if e.Amount, err = parseBig(*amount); err != nil {
				return nil, err
			}
		}
		if value != nil {
			if e.Value, err = parseBig(*value); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return events, nil
}
