package models

import "github.com/shopspring/decimal"

type PurchaseRequest struct {
	EventID       int64  `json:"event_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Quantity      int    `json:"quantity"`
}

// PurchaseConfirmation is returned to the caller after a committed sale.
type PurchaseConfirmation struct {
	TicketID    int64           `json:"ticket_id"`
	EventName   string          `json:"event_name"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
