package ticket_api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticketfairy/internal/logger"
	"ticketfairy/internal/models"
	"ticketfairy/internal/tickets"
	"ticketfairy/internal/tickets/qr"
	"ticketfairy/internal/utils"
)

// Clients never see internal failure detail; this is the whole message.
const systemErrorMessage = "An unexpected error occurred. Please try again later."

type InventoryService interface {
	Availability(ctx context.Context, eventID int64) (*models.Availability, error)
	SalesReport(ctx context.Context) ([]models.EventSales, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
}

type TicketReader interface {
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
}

type Handler struct {
	TicketService *tickets.Service
	Inventory     InventoryService
	Tickets       TicketReader
	QRGenerator   *qr.Generator
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.Service, inventory InventoryService, ticketReader TicketReader, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{
		TicketService: ticketService,
		Inventory:     inventory,
		Tickets:       ticketReader,
		QRGenerator:   qrGen,
		Logger:        log,
	}
}

// Routes mounts all API routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/purchase", h.Purchase)
	r.Get("/events", h.ListEvents)
	r.Get("/events/{eventID}/availability", h.GetAvailability)
	r.Get("/reports/sales", h.SalesReport)
	r.Get("/tickets/{ticketID}", h.GetTicket)
	r.Get("/tickets/{ticketID}/qr", h.TicketQR)
}

// Purchase handles POST /purchase.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", tickets.KindInvalidInput)
		return
	}

	confirmation, err := h.TicketService.Purchase(r.Context(), req)
	if err != nil {
		switch tickets.Classify(err) {
		case tickets.KindInvalidInput:
			h.writeError(w, http.StatusBadRequest, err.Error(), tickets.KindInvalidInput)
		case tickets.KindEventNotFound:
			h.writeError(w, http.StatusNotFound, "Event not found", tickets.KindEventNotFound)
		case tickets.KindInsufficientTickets:
			h.writeError(w, http.StatusConflict, err.Error(), tickets.KindInsufficientTickets)
		default:
			// Already logged with full detail inside the service.
			h.writeError(w, http.StatusInternalServerError, systemErrorMessage, tickets.KindSystem)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Tickets purchased successfully", confirmation))
}

// ListEvents handles GET /events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Inventory.ListEvents(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("list events: %v", err))
		h.writeError(w, http.StatusInternalServerError, systemErrorMessage, tickets.KindSystem)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", events))
}

// GetAvailability handles GET /events/{eventID}/availability.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid event id", tickets.KindInvalidInput)
		return
	}

	availability, err := h.Inventory.Availability(r.Context(), eventID)
	if errors.Is(err, tickets.ErrEventNotFound) {
		h.writeError(w, http.StatusNotFound, "Event not found", tickets.KindEventNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("availability for event %d: %v", eventID, err))
		h.writeError(w, http.StatusInternalServerError, systemErrorMessage, tickets.KindSystem)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Availability retrieved", availability))
}

// SalesReport handles GET /reports/sales.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Inventory.SalesReport(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("sales report: %v", err))
		h.writeError(w, http.StatusInternalServerError, systemErrorMessage, tickets.KindSystem)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Sales report retrieved", report))
}

// GetTicket handles GET /tickets/{ticketID}.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.ticketFromRequest(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Ticket retrieved", ticket))
}

// TicketQR handles GET /tickets/{ticketID}/qr and renders the encrypted
// e-ticket QR code as a PNG.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.ticketFromRequest(w, r)
	if !ok {
		return
	}

	png, err := h.QRGenerator.GenerateEncryptedQR(*ticket)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("generate QR for ticket %d: %v", ticket.ID, err))
		h.writeError(w, http.StatusInternalServerError, systemErrorMessage, tickets.KindSystem)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) ticketFromRequest(w http.ResponseWriter, r *http.Request) (*models.Ticket, bool) {
	ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid ticket id", tickets.KindInvalidInput)
		return nil, false
	}

	ticket, err := h.Tickets.GetTicketByID(r.Context(), ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "Ticket not found", tickets.KindEventNotFound)
		return nil, false
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("get ticket %d: %v", ticketID, err))
		h.writeError(w, http.StatusInternalServerError, systemErrorMessage, tickets.KindSystem)
		return nil, false
	}
	return ticket, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, kind tickets.ErrorKind) {
	h.writeJSON(w, status, utils.ErrorResponse(message, string(kind)))
}
