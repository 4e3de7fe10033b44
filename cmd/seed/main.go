package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ticketfairy/internal/config"
	"ticketfairy/internal/database/migrations"
	"ticketfairy/internal/logger"
	"ticketfairy/internal/models"
	"ticketfairy/internal/tickets"
	ticketdb "ticketfairy/internal/tickets/db"
)

func sampleEvents() []models.Event {
	return []models.Event{
		{
			Name:         "Summer Music Festival",
			Description:  "A three-day outdoor music festival featuring top artists",
			EventDate:    time.Date(2024, 7, 15, 18, 0, 0, 0, time.UTC),
			Venue:        "Central Park Amphitheater",
			TotalTickets: 1000,
			Price:        decimal.NewFromFloat(75.00),
		},
		{
			Name:         "Tech Conference 2024",
			Description:  "Annual technology conference with industry leaders",
			EventDate:    time.Date(2024, 8, 20, 9, 0, 0, 0, time.UTC),
			Venue:        "Convention Center Hall A",
			TotalTickets: 500,
			Price:        decimal.NewFromFloat(150.00),
		},
		{
			Name:         "Comedy Night",
			Description:  "Stand-up comedy show with local comedians",
			EventDate:    time.Date(2024, 6, 30, 20, 0, 0, 0, time.UTC),
			Venue:        "Downtown Comedy Club",
			TotalTickets: 200,
			Price:        decimal.NewFromFloat(25.00),
		},
	}
}

type samplePurchase struct {
	eventIndex int
	name       string
	email      string
	quantity   int
}

func samplePurchases() []samplePurchase {
	return []samplePurchase{
		{0, "John Doe", "john@example.com", 2},
		{0, "Jane Smith", "jane@example.com", 4},
		{1, "Bob Johnson", "bob@example.com", 1},
		{2, "Alice Brown", "alice@example.com", 3},
	}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("SEED", fmt.Sprintf("Failed to open Postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	if err := bunDB.Ping(); err != nil {
		log.Fatal("SEED", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := runner.MigrateUp(); err != nil {
		log.Fatal("SEED", fmt.Sprintf("Migrations failed: %v", err))
	}

	ctx := context.Background()

	count, err := bunDB.NewSelect().Model((*models.Event)(nil)).Count(ctx)
	if err != nil {
		log.Fatal("SEED", fmt.Sprintf("Failed to count events: %v", err))
	}
	if count > 0 {
		log.Info("SEED", fmt.Sprintf("Database already has %d events, nothing to do", count))
		return
	}

	events := sampleEvents()
	for i := range events {
		if _, err := bunDB.NewInsert().Model(&events[i]).Exec(ctx); err != nil {
			log.Fatal("SEED", fmt.Sprintf("Failed to insert event %q: %v", events[i].Name, err))
		}
		log.Info("SEED", fmt.Sprintf("Inserted event %d: %s", events[i].ID, events[i].Name))
	}

	// Sample purchases go through the real purchase flow so totals and
	// inventory checks behave exactly as they do in production.
	service := tickets.NewService(ticketdb.New(bunDB), nil, log)
	for _, p := range samplePurchases() {
		confirmation, err := service.Purchase(ctx, models.PurchaseRequest{
			EventID:       events[p.eventIndex].ID,
			CustomerName:  p.name,
			CustomerEmail: p.email,
			Quantity:      p.quantity,
		})
		if err != nil {
			log.Fatal("SEED", fmt.Sprintf("Sample purchase for %s failed: %v", p.name, err))
		}
		log.Info("SEED", fmt.Sprintf("Ticket %d: %s x%d for %s ($%s)",
			confirmation.TicketID, confirmation.EventName, confirmation.Quantity,
			p.name, confirmation.TotalAmount.StringFixed(2)))
	}

	log.Info("SEED", "Sample data inserted successfully")
}
