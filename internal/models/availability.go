package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Availability is a point-in-time snapshot of remaining inventory for an
// event. Display paths read it unlocked, so it can be stale the instant
// after it is computed; only the locked read inside the purchase
// transaction is authoritative.
type Availability struct {
	EventID      int64 `json:"event_id"`
	TotalTickets int   `json:"total_tickets"`
	Sold         int   `json:"sold"`
	Available    int   `json:"available"`
}

// EventSales is one row of the per-event sales report.
type EventSales struct {
	EventID          int64           `bun:"id" json:"event_id"`
	Name             string          `bun:"name" json:"name"`
	EventDate        time.Time       `bun:"event_date" json:"event_date"`
	Venue            string          `bun:"venue" json:"venue"`
	TotalTickets     int             `bun:"total_tickets" json:"total_tickets"`
	Price            decimal.Decimal `bun:"price" json:"price"`
	TicketsSold      int             `bun:"tickets_sold" json:"tickets_sold"`
	TicketsRemaining int             `bun:"tickets_remaining" json:"tickets_remaining"`
	TotalRevenue     decimal.Decimal `bun:"total_revenue" json:"total_revenue"`
}
