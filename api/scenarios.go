/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	curb segments. Each scenario creates slots and their raw rule records
	that demonstrate specific evaluation features.

AVAILABLE SCENARIOS:

	downtown:     Paid parking with max stays plus street cleaning
	residential:  Permit zones, one with an evening-only window
	winter:       Overnight bans across midnight and a Sunday no-stopping
	sign-import:  Records parsed from a JSON sign export via the factory

HOW SCENARIOS WORK:
 1. Reset store (clear all slots and records)
 2. Drop every cached agenda
 3. Create slots
 4. Replace each slot's records (presets or factory JSON)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "downtown"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description, slot count
 2. Create builder function: xxxScenario() ([]scenarioSlot, error)
 3. Add case to scenarioSlots

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Slot and evaluation handlers
  - regulation/presets.go: Record builders
  - factory/rules.go: Rule JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/regulation"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "downtown",
		Name:        "Downtown",
		Description: "Paid parking with 90 and 120 minute limits, Tuesday street cleaning in season",
		Slots:       3,
	},
	{
		ID:          "residential",
		Name:        "Residential",
		Description: "Resident permit zones Z7 and Z9, Thursday street cleaning",
		Slots:       3,
	},
	{
		ID:          "winter",
		Name:        "Winter Overnight",
		Description: "Overnight winter bans spanning midnight and a Sunday no-stopping segment",
		Slots:       2,
	},
	{
		ID:          "sign-import",
		Name:        "Sign Import",
		Description: "Records parsed from a JSON sign export, including fractional hours",
		Slots:       2,
	},
}

type scenarioSlot struct {
	slot    regulation.Slot
	records []regulation.RawRuleRecord
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	slots, err := h.scenarioSlots(req.ScenarioID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadScenario(r.Context(), slots); err != nil {
		h.currentScenario = ""
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.logger.Info().Str("scenario", req.ScenarioID).Int("slots", len(slots)).Msg("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

func (h *Handler) loadScenario(ctx context.Context, slots []scenarioSlot) error {
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	h.Rules.InvalidateAll(ctx)

	for _, s := range slots {
		if err := h.Store.SaveSlot(ctx, s.slot); err != nil {
			return fmt.Errorf("save slot %s: %w", s.slot.ID, err)
		}
		if err := h.Store.ReplaceRecords(ctx, s.slot.ID, s.records); err != nil {
			return fmt.Errorf("save records for %s: %w", s.slot.ID, err)
		}
	}
	return nil
}

func (h *Handler) scenarioSlots(id string) ([]scenarioSlot, error) {
	switch id {
	case "downtown":
		return downtownScenario(), nil
	case "residential":
		return residentialScenario(), nil
	case "winter":
		return winterScenario(), nil
	case "sign-import":
		return h.signImportScenario()
	default:
		return nil, fmt.Errorf("no scenario %q", id)
	}
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

func downtownScenario() []scenarioSlot {
	mainSt := regulation.PaidZone("PAY-90", 9, 18, 90)
	mainSt = append(mainSt, regulation.StreetCleaning("SC-TUE", generic.Tuesday, 7, 9, "04-01", "11-30")...)

	market := regulation.PaidZone("PAY-120", 8, 20, 120)

	loading := regulation.NoStopping("NS-LOAD", generic.Monday, generic.Wednesday, generic.Friday)

	return []scenarioSlot{
		{regulation.Slot{ID: "dt-main-001", Name: "Main St 100 block", Description: "Paid, street cleaning Tuesday mornings"}, mainSt},
		{regulation.Slot{ID: "dt-market-002", Name: "Market St", Description: "Paid 8-20, two hour limit"}, market},
		{regulation.Slot{ID: "dt-loading-003", Name: "Loading bay", Description: "No stopping Mon/Wed/Fri"}, loading},
	}
}

func residentialScenario() []scenarioSlot {
	oak := regulation.ResidentPermitZone("RP-Z7", "Z7", 0, 24)

	elm := regulation.ResidentPermitZone("RP-Z9", "Z9", 18, 24)
	elm = append(elm, regulation.StreetCleaning("SC-THU", generic.Thursday, 12, 15.5, "04-15", "11-15")...)

	open := regulation.StreetCleaning("SC-THU", generic.Thursday, 12, 15.5, "04-15", "11-15")

	return []scenarioSlot{
		{regulation.Slot{ID: "res-oak-001", Name: "Oak Ave", Description: "Zone Z7 permit holders only"}, oak},
		{regulation.Slot{ID: "res-elm-002", Name: "Elm St", Description: "Zone Z9 permits after 18:00"}, elm},
		{regulation.Slot{ID: "res-pine-003", Name: "Pine St", Description: "Thursday afternoon street cleaning"}, open},
	}
}

func winterScenario() []scenarioSlot {
	avenue := regulation.WinterOvernightBan("WIN-23", 23, 8)

	church := regulation.WinterOvernightBan("WIN-01", 1, 6)
	church = append(church, regulation.NoStopping("NS-SUN", generic.Sunday)...)

	return []scenarioSlot{
		{regulation.Slot{ID: "win-avenue-001", Name: "Snow route", Description: "No parking 23:00-07:00, Dec-Mar"}, avenue},
		{regulation.Slot{ID: "win-church-002", Name: "Church St", Description: "Winter 01:00-07:00 ban, no stopping Sundays"}, church},
	}
}

// signExport mimics the JSON rows a municipal sign inventory produces.
const signExport = `[
	{"code": "SC-MON-WED", "description": "Street cleaning", "season_start": "04-01", "season_end": "12-01",
	 "start_hour": "8.5", "end_hour": "10.5", "days": ["mon", "wed"], "restrict_type": "maintenance"},
	{"code": "MAX-30", "description": "30 minute parking", "max_stay_minutes": 30,
	 "start_hour": 7, "end_hour": 19, "days": ["mon", "tue", "wed", "thu", "fri", "sat"]},
	{"code": "PAY-60", "description": "Paid parking", "max_stay_minutes": 60,
	 "start_hour": 9, "end_hour": 21, "daily": true, "restrict_type": "paid"}
]`

func (h *Handler) signImportScenario() ([]scenarioSlot, error) {
	records, err := h.RuleFactory.ParseRecords(signExport)
	if err != nil {
		return nil, fmt.Errorf("parse sign export: %w", err)
	}
	return []scenarioSlot{
		{regulation.Slot{ID: "imp-001", Name: "Imported curb A", Description: "Street cleaning and 30 minute parking"}, records[:2]},
		{regulation.Slot{ID: "imp-002", Name: "Imported curb B", Description: "Paid parking every day"}, records[2:]},
	}, nil
}
