package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ticketfairy/internal/config"
	"ticketfairy/internal/database/migrations"
	"ticketfairy/internal/inventory"
	"ticketfairy/internal/kafka"
	"ticketfairy/internal/logger"
	"ticketfairy/internal/tickets"
	ticketdb "ticketfairy/internal/tickets/db"
	"ticketfairy/internal/tickets/qr"
	"ticketfairy/internal/tickets/ticket_api"
)

func openDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open Postgres: %v", err))
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	log.Info("DATABASE", "Postgres connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func buildProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled {
		return nil
	}
	if cfg.Kafka.MockMode {
		log.Info("KAFKA", "Running with mock producer")
		return kafka.NewMockProducer(cfg.Kafka.PurchasedTopic, log)
	}
	log.Info("KAFKA", fmt.Sprintf("Producing to %s via %v", cfg.Kafka.PurchasedTopic, cfg.Kafka.Brokers))
	return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PurchasedTopic, log)
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	bunDB := openDatabase(cfg, log)
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := runner.MigrateUp(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}

	var cache *inventory.AvailabilityCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("REDIS", fmt.Sprintf("Redis unavailable, availability cache disabled: %v", err))
		} else {
			log.Info("REDIS", fmt.Sprintf("Availability cache enabled (TTL %s)", cfg.Redis.AvailabilityTTL))
			cache = inventory.NewAvailabilityCache(rdb, cfg.Redis.AvailabilityTTL)
		}
	}

	producer := buildProducer(cfg, log)
	if producer != nil {
		defer producer.Close()
	}

	store := ticketdb.New(bunDB)
	var publisher tickets.Publisher
	if producer != nil {
		publisher = producer
	}
	ticketService := tickets.NewService(store, publisher, log)
	inventoryService := inventory.NewService(bunDB, cache)
	qrGenerator := qr.NewGenerator(os.Getenv("QR_SECRET_KEY"))

	handler := ticket_api.NewHandler(ticketService, inventoryService, store, qrGenerator, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ticket_api.RequestLogger(log))
	r.Route("/api", handler.Routes)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("TicketFairy listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "Shutdown complete")
}
