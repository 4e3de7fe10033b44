package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Event is a purchasable offering with a fixed capacity and price.
// Events are created by the seeding/admin path and never mutated by
// the purchase flow; TotalTickets is a ceiling, not a live counter.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           int64           `bun:"id,pk,autoincrement" json:"id"`
	Name         string          `bun:"name,notnull" json:"name"`
	Description  string          `bun:"description" json:"description"`
	EventDate    time.Time       `bun:"event_date,notnull" json:"event_date"`
	Venue        string          `bun:"venue" json:"venue"`
	TotalTickets int             `bun:"total_tickets,notnull" json:"total_tickets"`
	Price        decimal.Decimal `bun:"price,notnull,type:decimal(10,2)" json:"price"`
}
