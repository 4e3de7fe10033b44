package tickets

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ticketfairy/internal/models"
)

// Store is the contract the purchase flow needs from the relational store.
// The callback passed to RunInTx executes as one transaction: it either
// commits as a whole or rolls back as a whole.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the storage operations available inside a purchase transaction.
type Tx interface {
	// LockEventForUpdate reads the event row with an exclusive row lock,
	// blocking concurrent purchasers of the same event until the
	// transaction ends. Returns ErrEventNotFound if the event is absent.
	LockEventForUpdate(ctx context.Context, id int64) (*models.Event, error)
	// SumSoldQuantity sums the quantities of all tickets sold for the
	// event, consistent within the calling transaction.
	SumSoldQuantity(ctx context.Context, eventID int64) (int, error)
	// InsertTicket inserts a sale record and populates its generated ID.
	InsertTicket(ctx context.Context, ticket *models.Ticket) error
}

// Publisher streams post-commit purchase events. Publish failures never
// affect the purchase outcome.
type Publisher interface {
	PublishTicketPurchased(ticket models.Ticket, eventName string) error
}

type Logger interface {
	Info(category, message string)
	Warn(category, message string)
	Error(category, message string)
}

type Service struct {
	store     Store
	publisher Publisher
	logger    Logger
}

func NewService(store Store, publisher Publisher, logger Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// Purchase atomically checks availability, reserves capacity and records a
// sale for the requested event. The event row is read under an exclusive
// lock so the availability check and the ticket insert can never interleave
// with another purchaser's insert for the same event. Purchases of
// different events do not block each other.
func (s *Service) Purchase(ctx context.Context, req models.PurchaseRequest) (*models.PurchaseConfirmation, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var (
		ticket    models.Ticket
		eventName string
	)

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		event, err := tx.LockEventForUpdate(ctx, req.EventID)
		if err != nil {
			return err
		}

		sold, err := tx.SumSoldQuantity(ctx, req.EventID)
		if err != nil {
			return fmt.Errorf("sum sold quantity: %w", err)
		}

		available := event.TotalTickets - sold
		if req.Quantity > available {
			return &InsufficientTicketsError{Available: available}
		}

		ticket = models.Ticket{
			EventID:       req.EventID,
			CustomerName:  strings.TrimSpace(req.CustomerName),
			CustomerEmail: strings.TrimSpace(req.CustomerEmail),
			Quantity:      req.Quantity,
			TotalAmount:   event.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
			CreatedAt:     time.Now().UTC(),
		}
		if err := tx.InsertTicket(ctx, &ticket); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}

		eventName = event.Name
		return nil
	})
	if err != nil {
		switch Classify(err) {
		case KindInvalidInput, KindEventNotFound, KindInsufficientTickets:
			// Expected business outcomes, never logged as errors.
			return nil, err
		default:
			s.logger.Error("PURCHASE", fmt.Sprintf("purchase failed for event %d: %v", req.EventID, err))
			return nil, &SystemError{Err: err}
		}
	}

	s.logger.Info("PURCHASE", fmt.Sprintf("ticket %d sold: event %d, qty %d, total %s",
		ticket.ID, ticket.EventID, ticket.Quantity, ticket.TotalAmount.StringFixed(2)))

	if s.publisher != nil {
		if err := s.publisher.PublishTicketPurchased(ticket, eventName); err != nil {
			s.logger.Warn("KAFKA", fmt.Sprintf("failed to publish purchase event for ticket %d: %v", ticket.ID, err))
		}
	}

	return &models.PurchaseConfirmation{
		TicketID:    ticket.ID,
		EventName:   eventName,
		Quantity:    ticket.Quantity,
		TotalAmount: ticket.TotalAmount,
	}, nil
}

func validateRequest(req models.PurchaseRequest) error {
	if req.EventID <= 0 || strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.CustomerEmail) == "" || req.Quantity == 0 {
		return &InvalidInputError{Reason: "All fields are required"}
	}
	if req.Quantity < 0 {
		return &InvalidInputError{Reason: "Quantity must be greater than 0"}
	}
	email := strings.TrimSpace(req.CustomerEmail)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &InvalidInputError{Reason: "Invalid email address"}
	}
	return nil
}
