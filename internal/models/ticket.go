package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Ticket is an immutable record of a completed purchase against an event.
// Rows are inserted exactly once per successful purchase and never updated
// or deleted; the ID is generated by the database on insert.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	EventID       int64           `bun:"event_id,notnull" json:"event_id"`
	CustomerName  string          `bun:"customer_name,notnull" json:"customer_name"`
	CustomerEmail string          `bun:"customer_email,notnull" json:"customer_email"`
	Quantity      int             `bun:"quantity,notnull" json:"quantity"`
	TotalAmount   decimal.Decimal `bun:"total_amount,notnull,type:decimal(10,2)" json:"total_amount"`
	CreatedAt     time.Time       `bun:"created_at,notnull" json:"created_at"`
}
