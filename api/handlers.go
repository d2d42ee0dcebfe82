/*
handlers.go - HTTP API handlers for the billing schedule engine

PURPOSE:
  Exposes the schedule engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Campaigns:
    GET    /api/campaigns                    List campaigns
    POST   /api/campaigns                    Create campaign
    GET    /api/campaigns/{id}               Get campaign
    PUT    /api/campaigns/{id}/bursts        Replace burst list
    PUT    /api/campaigns/{id}/line-items    Replace detail rows

  Schedule:
    GET    /api/campaigns/{id}/schedule                Live schedule
    GET    /api/campaigns/{id}/schedule/line-items     Materialized rows
    POST   /api/campaigns/{id}/schedule/edit           Open editing draft
    PUT    /api/campaigns/{id}/schedule/edit/cell      Edit one bucket cell
    PUT    /api/campaigns/{id}/schedule/edit/line-item Edit one row cell
    POST   /api/campaigns/{id}/schedule/edit/save      Reconcile and commit
    POST   /api/campaigns/{id}/schedule/edit/reset     Back to automatic

  Rate cards:
    GET    /api/rate-cards/{client}          Get client rates
    PUT    /api/rate-cards/{client}          Save client rates

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: State conflicts (no open draft, draft already open) and
         rejected reconciliation (body carries the signed difference)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/factory"
	"github.com/warp/billing-engine/plan"
	"github.com/warp/billing-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *plan.Service
	Store   plan.Store
	Cards   *factory.RateCardFactory
	Logger  *slog.Logger
}

// NewHandler creates a new handler around the schedule service.
func NewHandler(service *plan.Service, store plan.Store, logger *slog.Logger) *Handler {
	return &Handler{
		Service: service,
		Store:   store,
		Cards:   factory.NewRateCardFactory(),
		Logger:  logger,
	}
}

// =============================================================================
// CAMPAIGN HANDLERS
// =============================================================================

// ListCampaigns returns all campaigns.
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Service.ListCampaigns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list campaigns", err)
		return
	}

	dtos := make([]CampaignDTO, len(campaigns))
	for i, c := range campaigns {
		dtos[i] = toCampaignDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCampaign creates a new campaign.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := plan.Campaign{
		ID:     req.ID,
		Name:   req.Name,
		Client: req.Client,
		Budget: decimal.NewFromFloat(req.Budget),
	}
	// Missing dates are allowed while a plan is drafted; malformed ones
	// are not.
	var err error
	if req.StartDate != "" {
		if c.StartDate, err = schedule.ParseDate(req.StartDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
	}
	if req.EndDate != "" {
		if c.EndDate, err = schedule.ParseDate(req.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	created, err := h.Service.CreateCampaign(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to create campaign", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignDTO(created))
}

// GetCampaign returns a single campaign.
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignDTO(*c))
}

// ReplaceBursts replaces the campaign's burst list wholesale.
func (h *Handler) ReplaceBursts(w http.ResponseWriter, r *http.Request) {
	var req ReplaceBurstsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	for _, b := range req.Bursts {
		if !schedule.MediaType(b.MediaType).Valid() {
			writeError(w, http.StatusBadRequest, "Unknown media type: "+b.MediaType, nil)
			return
		}
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.ReplaceBursts(r.Context(), id, toBursts(req.Bursts)); err != nil {
		h.writeDomainError(w, "Failed to save bursts", err)
		return
	}
	h.respondWithSchedule(w, r, id)
}

// ReplaceLineItemSources replaces the campaign's planning detail rows.
func (h *Handler) ReplaceLineItemSources(w http.ResponseWriter, r *http.Request) {
	var req ReplaceLineItemSourcesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	for _, src := range req.Sources {
		if !schedule.MediaType(src.MediaType).Valid() {
			writeError(w, http.StatusBadRequest, "Unknown media type: "+src.MediaType, nil)
			return
		}
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.ReplaceLineItemSources(r.Context(), id, toLineItemSources(req.Sources)); err != nil {
		h.writeDomainError(w, "Failed to save line items", err)
		return
	}
	h.respondWithSchedule(w, r, id)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GetSchedule returns the campaign's live schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	h.respondWithSchedule(w, r, chi.URLParam(r, "id"))
}

// GetLineItems returns the materialized detail rows of the live schedule.
func (h *Handler) GetLineItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.LineItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to materialize line items", err)
		return
	}
	writeJSON(w, http.StatusOK, toLineItemDTOs(items))
}

// BeginEdit opens (or reopens) the campaign's editing draft.
func (h *Handler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	draft, items, err := h.Service.BeginEdit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to open editing draft", err)
		return
	}
	writeJSON(w, http.StatusOK, EditSessionDTO{
		Schedule:  toScheduleDTO(draft),
		LineItems: toLineItemDTOs(items),
	})
}

// EditCell applies one bucket-level edit to the open draft.
func (h *Handler) EditCell(w http.ResponseWriter, r *http.Request) {
	var req EditCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	month, err := schedule.ParseMonthKey(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return
	}

	draft, err := h.Service.EditCell(r.Context(), chi.URLParam(r, "id"), schedule.CellEdit{
		Month:     month,
		Field:     schedule.CellField(req.Field),
		MediaType: schedule.MediaType(req.MediaType),
		Value:     decimal.NewFromFloat(req.Value),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to apply edit", err)
		return
	}
	writeJSON(w, http.StatusOK, EditSessionDTO{Schedule: toScheduleDTO(draft)})
}

// EditLineItem applies one line-item edit to the open draft.
func (h *Handler) EditLineItem(w http.ResponseWriter, r *http.Request) {
	var req EditLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	month, err := schedule.ParseMonthKey(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return
	}

	key := schedule.LineItemKey{
		MediaType: schedule.MediaType(req.MediaType),
		Publisher: req.Publisher,
		Detail:    req.Detail,
	}
	draft, items, err := h.Service.EditLineItem(r.Context(), chi.URLParam(r, "id"),
		key, month, decimal.NewFromFloat(req.Value))
	if err != nil {
		h.writeDomainError(w, "Failed to apply edit", err)
		return
	}
	writeJSON(w, http.StatusOK, EditSessionDTO{
		Schedule:  toScheduleDTO(draft),
		LineItems: toLineItemDTOs(items),
	})
}

// SaveSchedule gates the draft on budget reconciliation. A rejected save
// answers 409 with the signed difference and leaves the draft open.
func (h *Handler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.SaveManual(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to save schedule", err)
		return
	}

	dto := SaveResultDTO{
		Accepted:   result.Accepted,
		Difference: result.Difference.InexactFloat64(),
	}
	if !result.Accepted {
		writeJSON(w, http.StatusConflict, dto)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ResetSchedule discards any manual override and returns the fresh
// automatic derivation.
func (h *Handler) ResetSchedule(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.ResetManual(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to reset schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(s))
}

// =============================================================================
// RATE CARD HANDLERS
// =============================================================================

// GetRateCard returns a client's negotiated ad-serving rates.
func (h *Handler) GetRateCard(w http.ResponseWriter, r *http.Request) {
	client := chi.URLParam(r, "client")
	rates, err := h.Store.RateCard(r.Context(), client)
	if err != nil {
		if errors.Is(err, plan.ErrRateCardNotFound) {
			writeError(w, http.StatusNotFound, "No rate card for client", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get rate card", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Cards.ToJSON(client, rates))
}

// SaveRateCard stores a client's negotiated ad-serving rates.
func (h *Handler) SaveRateCard(w http.ResponseWriter, r *http.Request) {
	client := chi.URLParam(r, "client")

	var card factory.RateCardJSON
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	card.Client = client

	rates, err := h.Cards.FromJSON(card)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate card", err)
		return
	}
	if err := h.Store.SaveRateCard(r.Context(), client, rates); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate card", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Cards.ToJSON(client, rates))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) respondWithSchedule(w http.ResponseWriter, r *http.Request, campaignID string) {
	s, err := h.Service.Schedule(r.Context(), campaignID)
	if err != nil {
		h.writeDomainError(w, "Failed to build schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(s))
}

// writeDomainError maps domain errors onto HTTP statuses: not-found to
// 404, session-state conflicts to 409, other caller mistakes to 400, and
// everything else to 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, plan.ErrCampaignNotFound):
		writeError(w, http.StatusNotFound, "Campaign not found", nil)
	case errors.Is(err, plan.ErrNoSession),
		errors.Is(err, schedule.ErrNotEditing),
		errors.Is(err, schedule.ErrAlreadyEditing):
		writeError(w, http.StatusConflict, message, err)
	case schedule.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		if h.Logger != nil {
			h.Logger.Error(message, "error", err)
		}
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
