package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ticketfairy/internal/models"
	"ticketfairy/internal/tickets"
)

// Service answers read-only inventory and reporting queries. All reads are
// unlocked: results are advisory snapshots for display and reporting, never
// an input to a purchase decision.
type Service struct {
	db    *bun.DB
	cache *AvailabilityCache
}

// NewService creates an inventory service. cache may be nil.
func NewService(db *bun.DB, cache *AvailabilityCache) *Service {
	return &Service{db: db, cache: cache}
}

// Availability computes tickets sold and remaining for an event.
func (s *Service) Availability(ctx context.Context, eventID int64) (*models.Availability, error) {
	if s.cache != nil {
		if av, ok := s.cache.Get(ctx, eventID); ok {
			return av, nil
		}
	}

	event := new(models.Event)
	err := s.db.NewSelect().
		Model(event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tickets.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select event %d: %w", eventID, err)
	}

	var sold int
	err = s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("COALESCE(SUM(quantity), 0)").
		Where("event_id = ?", eventID).
		Scan(ctx, &sold)
	if err != nil {
		return nil, fmt.Errorf("sum sold for event %d: %w", eventID, err)
	}

	av := &models.Availability{
		EventID:      eventID,
		TotalTickets: event.TotalTickets,
		Sold:         sold,
		Available:    event.TotalTickets - sold,
	}
	if s.cache != nil {
		s.cache.Set(ctx, av)
	}
	return av, nil
}

// SalesReport aggregates sales per event, newest event first. Events with
// no sales appear with zero counts.
func (s *Service) SalesReport(ctx context.Context) ([]models.EventSales, error) {
	report := make([]models.EventSales, 0)
	err := s.db.NewSelect().
		TableExpr("events AS e").
		ColumnExpr("e.id, e.name, e.event_date, e.venue, e.total_tickets, e.price").
		ColumnExpr("COALESCE(SUM(t.quantity), 0) AS tickets_sold").
		ColumnExpr("e.total_tickets - COALESCE(SUM(t.quantity), 0) AS tickets_remaining").
		ColumnExpr("COALESCE(SUM(t.total_amount), 0) AS total_revenue").
		Join("LEFT JOIN tickets AS t ON t.event_id = e.id").
		GroupExpr("e.id, e.name, e.event_date, e.venue, e.total_tickets, e.price").
		OrderExpr("e.event_date DESC").
		Scan(ctx, &report)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	return report, nil
}

// ListEvents returns all events ordered by date, soonest first.
func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := s.db.NewSelect().
		Model(&events).
		Order("event_date").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
