/*
handlers.go - HTTP API handlers for the parking restriction engine

PURPOSE:
  Exposes slot management and restriction evaluation via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the
  regulation package.

ENDPOINTS:
  Slots:
    GET    /api/slots                  List all slots
    POST   /api/slots                  Create or update a slot
    GET    /api/slots/{id}             Get slot details
    DELETE /api/slots/{id}             Delete slot and its rules

  Rules:
    GET    /api/slots/{id}/rules       Raw rule records, in stored order
    PUT    /api/slots/{id}/rules       Replace raw rule records
    GET    /api/slots/{id}/agenda      Consolidated rules (cached)
    POST   /api/rules/group            Group posted records without storing them

  Evaluation:
    POST   /api/slots/{id}/evaluate    Verdict for one slot
    POST   /api/evaluate               Verdicts for many slots

  Scenarios:
    GET    /api/scenarios              List demo datasets
    POST   /api/scenarios/load         Load a demo dataset

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: slots and raw records
  - Rules: read-through loader over the consolidated-rule cache
  - RuleFactory: JSON to record conversion and validation

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, invalid checkin request
  - 404: Slot not found
  - 422: Rule data that cannot be used; body carries rule_code and field
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/warp/curbside/cache"
	"github.com/warp/curbside/factory"
	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/logging"
	"github.com/warp/curbside/metrics"
	"github.com/warp/curbside/regulation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       regulation.RuleStore
	Rules       *cache.Loader
	RuleFactory *factory.RuleFactory
	BulkWorkers int

	logger zerolog.Logger

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler. bulkWorkers <= 0 uses the evaluator default.
func NewHandler(store regulation.RuleStore, rules *cache.Loader, bulkWorkers int) *Handler {
	return &Handler{
		Store:       store,
		Rules:       rules,
		RuleFactory: factory.NewRuleFactory(),
		BulkWorkers: bulkWorkers,
		logger:      logging.WithComponent("api"),
	}
}

// =============================================================================
// SLOT HANDLERS
// =============================================================================

// ListSlots returns all slots.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.Store.ListSlots(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list slots", err)
		return
	}

	dtos := make([]SlotDTO, len(slots))
	for i, s := range slots {
		dtos[i] = toSlotDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSlot returns a single slot.
func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := h.Store.GetSlot(r.Context(), slotParam(r))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get slot", err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotDTO(*slot))
}

// CreateSlot creates or updates a slot. A missing id is generated.
func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	slot := regulation.Slot{ID: regulation.SlotID(req.ID), Name: req.Name, Description: req.Description}
	if err := h.Store.SaveSlot(r.Context(), slot); err != nil {
		h.writeDomainError(w, r, "Failed to save slot", err)
		return
	}

	saved, err := h.Store.GetSlot(r.Context(), slot.ID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to reload slot", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSlotDTO(*saved))
}

// DeleteSlot removes a slot and its records.
func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id := slotParam(r)
	if err := h.Store.DeleteSlot(r.Context(), id); err != nil {
		h.writeDomainError(w, r, "Failed to delete slot", err)
		return
	}
	h.Rules.Invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// GetRules returns a slot's raw records in stored order.
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.LoadRecords(r.Context(), slotParam(r))
	if err != nil {
		h.writeDomainError(w, r, "Failed to load rules", err)
		return
	}
	writeJSON(w, http.StatusOK, h.RuleFactory.ToJSONList(records))
}

// PutRules replaces a slot's raw records and returns the consolidated rules.
func (h *Handler) PutRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := slotParam(r)

	var body []factory.RuleJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	records, err := h.RuleFactory.FromJSONList(body)
	if err != nil {
		h.writeDomainError(w, r, "Invalid rule data", err)
		return
	}
	// Catch problems that only show once records are grouped.
	if _, err := regulation.GroupRules(records); err != nil {
		h.writeDomainError(w, r, "Invalid rule data", err)
		return
	}

	if err := h.Store.ReplaceRecords(ctx, id, records); err != nil {
		h.writeDomainError(w, r, "Failed to save rules", err)
		return
	}
	h.Rules.Invalidate(ctx, id)

	rules, err := h.Rules.Refresh(ctx, id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to consolidate rules", err)
		return
	}

	h.logger.Info().Str("slot", string(id)).Int("records", len(records)).Int("rules", len(rules)).Msg("rules replaced")
	writeJSON(w, http.StatusOK, toRuleDTOs(rules))
}

// GetAgenda returns a slot's consolidated rules.
func (h *Handler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Rules.Rules(r.Context(), slotParam(r))
	if err != nil {
		h.writeDomainError(w, r, "Failed to load agenda", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTOs(rules))
}

// GroupRules consolidates posted records without touching the store.
func (h *Handler) GroupRules(w http.ResponseWriter, r *http.Request) {
	var body []factory.RuleJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	records, err := h.RuleFactory.FromJSONList(body)
	if err != nil {
		h.writeDomainError(w, r, "Invalid rule data", err)
		return
	}
	rules, err := regulation.GroupRules(records)
	if err != nil {
		h.writeDomainError(w, r, "Invalid rule data", err)
		return
	}
	metrics.RulesGroupedTotal.Add(float64(len(rules)))
	writeJSON(w, http.StatusOK, toRuleDTOs(rules))
}

// =============================================================================
// EVALUATION HANDLERS
// =============================================================================

// EvaluateSlot returns the verdict for one slot.
func (h *Handler) EvaluateSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := slotParam(r)

	var body EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req, err := toCheckinRequest(body)
	if err != nil {
		metrics.RecordError(err)
		h.writeDomainError(w, r, "Invalid checkin request", err)
		return
	}

	rules, err := h.Rules.Rules(ctx, id)
	if err != nil {
		metrics.RecordError(err)
		h.writeDomainError(w, r, "Failed to load rules", err)
		return
	}

	verdict, err := regulation.EvaluateDetailed(rules, req)
	if err != nil {
		metrics.RecordError(err)
		h.writeDomainError(w, r, "Evaluation failed", err)
		return
	}
	metrics.RecordVerdict(verdict.Restricted, string(verdict.Reason))

	writeJSON(w, http.StatusOK, toVerdictDTO(id, verdict))
}

// EvaluateBulk returns verdicts for the listed slots, or all slots.
func (h *Handler) EvaluateBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body BulkEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req, err := toCheckinRequest(body.EvaluateRequest)
	if err != nil {
		metrics.RecordError(err)
		h.writeDomainError(w, r, "Invalid checkin request", err)
		return
	}

	ids, err := h.bulkSlotIDs(ctx, body.SlotIDs)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list slots", err)
		return
	}

	slots := make([]regulation.SlotRules, 0, len(ids))
	for _, id := range ids {
		rules, err := h.Rules.Rules(ctx, id)
		if err != nil {
			metrics.RecordError(err)
			h.writeDomainError(w, r, "Failed to load rules for slot "+string(id), err)
			return
		}
		slots = append(slots, regulation.SlotRules{SlotID: id, Rules: rules})
	}

	verdicts, err := regulation.FilterSlots(ctx, slots, req, h.BulkWorkers)
	if err != nil {
		metrics.RecordError(err)
		h.writeDomainError(w, r, "Evaluation failed", err)
		return
	}
	metrics.BulkSlotsEvaluated.Observe(float64(len(slots)))

	resp := BulkEvaluateResponse{Results: make([]VerdictDTO, len(verdicts)), Permitted: []string{}}
	for i, v := range verdicts {
		metrics.RecordVerdict(v.Restricted, string(v.Reason))
		resp.Results[i] = toVerdictDTO(v.SlotID, v.Verdict)
	}
	for _, id := range regulation.Permitted(verdicts) {
		resp.Permitted = append(resp.Permitted, string(id))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) bulkSlotIDs(ctx context.Context, requested []string) ([]regulation.SlotID, error) {
	if len(requested) > 0 {
		ids := make([]regulation.SlotID, len(requested))
		for i, id := range requested {
			ids[i] = regulation.SlotID(id)
		}
		return ids, nil
	}
	slots, err := h.Store.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]regulation.SlotID, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids, nil
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports liveness, database reachability when the store supports
// it, and cache backend reachability.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	if err := h.Rules.HealthCheck(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Cache unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// Checkin layouts, tried in order. The first two are civil time and are
// interpreted as-is with no zone conversion.
var checkinLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339}

func parseCheckin(s string) (time.Time, error) {
	for _, layout := range checkinLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &generic.InvalidRequestError{Field: "checkin", Detail: "expected YYYY-MM-DDTHH:MM, got " + strconv.Quote(s)}
}

func toCheckinRequest(body EvaluateRequest) (regulation.CheckinRequest, error) {
	at, err := parseCheckin(body.Checkin)
	if err != nil {
		return regulation.CheckinRequest{}, err
	}
	req := regulation.NewCheckinRequest(at, time.Duration(body.DurationMinutes*float64(time.Minute)))
	if body.AllowPaid != nil {
		req.AllowPaid = *body.AllowPaid
	}
	req.Permit = body.Permit
	if err := req.Validate(); err != nil {
		return regulation.CheckinRequest{}, err
	}
	return req, nil
}

func slotParam(r *http.Request) regulation.SlotID {
	return regulation.SlotID(chi.URLParam(r, "id"))
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

// writeDomainError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error()}
	status := http.StatusInternalServerError

	var die *generic.DataIntegrityError
	var ire *generic.InvalidRequestError
	switch {
	case errors.As(err, &ire):
		status = http.StatusBadRequest
		resp.Field = ire.Field
	case generic.IsNotFound(err):
		status = http.StatusNotFound
	case errors.As(err, &die):
		status = http.StatusUnprocessableEntity
		resp.RuleCode = die.RuleCode
		resp.Field = die.Field
		h.logger.Warn().Str("rule", die.RuleCode).Str("field", die.Field).Str("path", r.URL.Path).Msg(die.Detail)
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}
	writeJSON(w, status, resp)
}
