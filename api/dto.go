/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. In particular
  agendas are keyed by weekday name and clocks are rendered "HH:MM" here,
  while the domain keeps ISO weekday numbers and minutes since midnight.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Slots:      SlotDTO, CreateSlotRequest
  Rules:      RuleDTO, IntervalDTO (raw records use factory.RuleJSON)
  Evaluation: EvaluateRequest, VerdictDTO, BulkEvaluateRequest, BulkEvaluateResponse
  Scenarios:  ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: RuleJSON type
*/
package api

import (
	"time"

	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/regulation"
)

// =============================================================================
// SLOTS
// =============================================================================

// SlotDTO represents a parking slot in API responses.
type SlotDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateSlotRequest is the request to create or update a slot.
type CreateSlotRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toSlotDTO(s regulation.Slot) SlotDTO {
	dto := SlotDTO{ID: string(s.ID), Name: s.Name, Description: s.Description}
	if !s.CreatedAt.IsZero() {
		dto.CreatedAt = s.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// CONSOLIDATED RULES
// =============================================================================

// IntervalDTO is a half-open interval rendered as "HH:MM" clocks; "24:00" is end of day.
type IntervalDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RuleDTO represents a consolidated rule in API responses.
type RuleDTO struct {
	Code           string                   `json:"code"`
	Description    string                   `json:"description,omitempty"`
	SeasonStart    string                   `json:"season_start,omitempty"`
	SeasonEnd      string                   `json:"season_end,omitempty"`
	MaxStayMinutes *string                  `json:"max_stay_minutes,omitempty"`
	Agenda         map[string][]IntervalDTO `json:"agenda"`
	SpecialDays    string                   `json:"special_days,omitempty"`
	RestrictType   string                   `json:"restrict_type,omitempty"`
	PermitNo       string                   `json:"permit_no,omitempty"`
}

func toRuleDTO(r regulation.ConsolidatedRule) RuleDTO {
	dto := RuleDTO{
		Code:         r.Code,
		Description:  r.Description,
		SeasonStart:  r.SeasonStart,
		SeasonEnd:    r.SeasonEnd,
		Agenda:       make(map[string][]IntervalDTO, len(generic.Weekdays)),
		SpecialDays:  r.SpecialDays,
		RestrictType: string(r.RestrictType),
		PermitNo:     r.PermitNo,
	}
	if r.MaxStayMinutes != nil {
		s := r.MaxStayMinutes.String()
		dto.MaxStayMinutes = &s
	}
	for wd, ivs := range r.Agenda {
		out := make([]IntervalDTO, len(ivs))
		for i, iv := range ivs {
			out[i] = IntervalDTO{Start: iv.Start.String(), End: iv.End.String()}
		}
		dto.Agenda[wd.String()] = out
	}
	return dto
}

func toRuleDTOs(rules []regulation.ConsolidatedRule) []RuleDTO {
	out := make([]RuleDTO, len(rules))
	for i, r := range rules {
		out[i] = toRuleDTO(r)
	}
	return out
}

// =============================================================================
// EVALUATION
// =============================================================================

// EvaluateRequest asks whether parking is allowed.
//
//	{"checkin": "2025-03-10T09:30", "duration_minutes": 60, "allow_paid": false, "permit": "Z7"}
//
// allow_paid defaults to true when omitted.
type EvaluateRequest struct {
	Checkin         string  `json:"checkin"`
	DurationMinutes float64 `json:"duration_minutes"`
	AllowPaid       *bool   `json:"allow_paid,omitempty"`
	Permit          string  `json:"permit,omitempty"`
}

// VerdictDTO is the outcome for one slot.
type VerdictDTO struct {
	SlotID     string `json:"slot_id,omitempty"`
	Restricted bool   `json:"restricted"`
	RuleCode   string `json:"rule_code,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func toVerdictDTO(id regulation.SlotID, v regulation.Verdict) VerdictDTO {
	return VerdictDTO{SlotID: string(id), Restricted: v.Restricted, RuleCode: v.RuleCode, Reason: string(v.Reason)}
}

// BulkEvaluateRequest evaluates one request against many slots.
// An empty SlotIDs list means every slot.
type BulkEvaluateRequest struct {
	EvaluateRequest
	SlotIDs []string `json:"slot_ids,omitempty"`
}

// BulkEvaluateResponse lists every verdict and the slots where parking is allowed.
type BulkEvaluateResponse struct {
	Results   []VerdictDTO `json:"results"`
	Permitted []string     `json:"permitted"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO describes a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Slots       int    `json:"slots"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the error body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	RuleCode string `json:"rule_code,omitempty"`
	Field    string `json:"field,omitempty"`
}
