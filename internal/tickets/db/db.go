package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ticketfairy/internal/models"
	"ticketfairy/internal/tickets"
)

// DB implements the purchase store contract on top of bun. Serialization of
// concurrent purchases for the same event is delegated entirely to the
// database row lock taken by LockEventForUpdate; the store holds no
// in-process locks.
type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// RunInTx runs fn inside a single database transaction. Any error returned
// by fn rolls the transaction back; no sale record persists for a failed
// attempt.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx tickets.Tx) error) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, btx bun.Tx) error {
		return fn(ctx, &Tx{bun: btx, rowLocks: d.supportsRowLocks()})
	})
}

// SQLite has no SELECT ... FOR UPDATE; its single-writer model serializes
// transactions on its own, so the locking clause is only emitted for
// dialects that support it.
func (d *DB) supportsRowLocks() bool {
	return d.Bun.Dialect().Name() != dialect.SQLite
}

// GetEventByID reads an event without locking it.
func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	event := new(models.Event)
	err := d.Bun.NewSelect().
		Model(event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tickets.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select event %d: %w", id, err)
	}
	return event, nil
}

// GetTicketByID reads a sale record by its generated identifier.
func (d *DB) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	ticket := new(models.Ticket)
	err := d.Bun.NewSelect().
		Model(ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("select ticket %d: %w", id, err)
	}
	return ticket, nil
}

// Tx wraps a bun transaction with the operations the purchase flow needs.
type Tx struct {
	bun      bun.Tx
	rowLocks bool
}

func (t *Tx) LockEventForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	event := new(models.Event)
	q := t.bun.NewSelect().
		Model(event).
		Where("id = ?", id).
		Limit(1)
	if t.rowLocks {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tickets.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock event %d: %w", id, err)
	}
	return event, nil
}

func (t *Tx) SumSoldQuantity(ctx context.Context, eventID int64) (int, error) {
	var sold int
	err := t.bun.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("COALESCE(SUM(quantity), 0)").
		Where("event_id = ?", eventID).
		Scan(ctx, &sold)
	if err != nil {
		return 0, fmt.Errorf("sum sold for event %d: %w", eventID, err)
	}
	return sold, nil
}

func (t *Tx) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	// Bun populates the autoincrement PK from RETURNING / LastInsertId.
	if _, err := t.bun.NewInsert().Model(ticket).Exec(ctx); err != nil {
		return fmt.Errorf("insert ticket for event %d: %w", ticket.EventID, err)
	}
	return nil
}
