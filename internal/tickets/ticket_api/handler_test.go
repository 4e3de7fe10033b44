package ticket_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticketfairy/internal/inventory"
	"ticketfairy/internal/logger"
	"ticketfairy/internal/models"
	"ticketfairy/internal/tickets"
	ticketdb "ticketfairy/internal/tickets/db"
	"ticketfairy/internal/tickets/qr"
	"ticketfairy/internal/tickets/ticket_api"
	"ticketfairy/internal/utils"
)

func setupServer(t *testing.T) (*chi.Mux, *bun.DB) {
	t.Helper()
	t.Chdir(t.TempDir()) // keep the logger's logs/ directory out of the repo

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	err = bunDB.ResetModel(context.Background(), (*models.Event)(nil), (*models.Ticket)(nil))
	require.NoError(t, err)

	log := logger.NewLogger()
	t.Cleanup(log.Close)

	store := ticketdb.New(bunDB)
	service := tickets.NewService(store, nil, log)
	inventoryService := inventory.NewService(bunDB, nil)
	handler := ticket_api.NewHandler(service, inventoryService, store, qr.NewGenerator("test-secret"), log)

	r := chi.NewRouter()
	r.Route("/api", handler.Routes)
	return r, bunDB
}

func seedEvent(t *testing.T, bunDB *bun.DB) *models.Event {
	t.Helper()
	event := &models.Event{
		Name:         "Comedy Night",
		EventDate:    time.Date(2024, 6, 30, 20, 0, 0, 0, time.UTC),
		Venue:        "Downtown Comedy Club",
		TotalTickets: 10,
		Price:        decimal.NewFromFloat(25.00),
	}
	_, err := bunDB.NewInsert().Model(event).Exec(context.Background())
	require.NoError(t, err)
	return event
}

func doPurchase(t *testing.T, router *chi.Mux, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/purchase", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPurchaseEndpointSuccess(t *testing.T) {
	router, bunDB := setupServer(t)
	event := seedEvent(t, bunDB)

	rec := doPurchase(t, router, map[string]any{
		"event_id":       event.ID,
		"customer_name":  "Jane Doe",
		"customer_email": "jane@x.com",
		"quantity":       4,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Comedy Night", data["event_name"])
	assert.Equal(t, float64(4), data["quantity"])
	assert.Equal(t, "100", data["total_amount"])
}

func TestPurchaseEndpointValidation(t *testing.T) {
	router, bunDB := setupServer(t)
	event := seedEvent(t, bunDB)

	rec := doPurchase(t, router, map[string]any{
		"event_id":       event.ID,
		"customer_name":  "Jane Doe",
		"customer_email": "not-an-email",
		"quantity":       1,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "validation", resp.Type)
	assert.Equal(t, "Invalid email address", resp.Message)
}

func TestPurchaseEndpointEventNotFound(t *testing.T) {
	router, _ := setupServer(t)

	rec := doPurchase(t, router, map[string]any{
		"event_id":       999,
		"customer_name":  "Jane Doe",
		"customer_email": "jane@x.com",
		"quantity":       1,
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "not_found", resp.Type)
}

func TestPurchaseEndpointInsufficientTickets(t *testing.T) {
	router, bunDB := setupServer(t)
	event := seedEvent(t, bunDB)

	rec := doPurchase(t, router, map[string]any{
		"event_id":       event.ID,
		"customer_name":  "Jane Doe",
		"customer_email": "jane@x.com",
		"quantity":       4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doPurchase(t, router, map[string]any{
		"event_id":       event.ID,
		"customer_name":  "Bob",
		"customer_email": "bob@x.com",
		"quantity":       7,
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "insufficient", resp.Type)
	assert.Equal(t, "Only 6 tickets left", resp.Message)
}

func TestAvailabilityEndpoint(t *testing.T) {
	router, bunDB := setupServer(t)
	event := seedEvent(t, bunDB)

	rec := doPurchase(t, router, map[string]any{
		"event_id":       event.ID,
		"customer_name":  "Jane Doe",
		"customer_email": "jane@x.com",
		"quantity":       4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/events/1/availability", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(10), data["total_tickets"])
	assert.Equal(t, float64(4), data["sold"])
	assert.Equal(t, float64(6), data["available"])

	req = httptest.NewRequest(http.MethodGet, "/api/events/999/availability", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSalesReportEndpoint(t *testing.T) {
	router, bunDB := setupServer(t)
	seedEvent(t, bunDB)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/sales", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	rows, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)

	row, ok := rows[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Comedy Night", row["name"])
	assert.Equal(t, float64(0), row["tickets_sold"])
}

func TestTicketQREndpoint(t *testing.T) {
	router, bunDB := setupServer(t)
	event := seedEvent(t, bunDB)

	rec := doPurchase(t, router, map[string]any{
		"event_id":       event.ID,
		"customer_name":  "Jane Doe",
		"customer_email": "jane@x.com",
		"quantity":       1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/1/qr", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	// PNG magic bytes.
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	req = httptest.NewRequest(http.MethodGet, "/api/tickets/999/qr", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTicketEndpoint(t *testing.T) {
	router, bunDB := setupServer(t)
	event := seedEvent(t, bunDB)

	rec := doPurchase(t, router, map[string]any{
		"event_id":       event.ID,
		"customer_name":  "Jane Doe",
		"customer_email": "jane@x.com",
		"quantity":       2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jane@x.com", data["customer_email"])

	req = httptest.NewRequest(http.MethodGet, "/api/tickets/not-a-number", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
