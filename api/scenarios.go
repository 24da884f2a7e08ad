/*
scenarios.go - Demo index series for testing and demonstrations

PURPOSE:

	Provides built-in data sets that populate the index store with monthly
	series, so calculations with monetary correction can be tried without
	an importer configured. Series names carry a _demo suffix and never
	collide with imported ones.

AVAILABLE SCENARIOS:

	inflation:      ipca_demo, 24 monthly values (2023-2024)
	general-prices: igpm_demo, 12 monthly values (2024)
	policy-rate:    selic_demo, 12 monthly values (2024)
	sparse:         sparse_demo, quarterly values; gaps show the nearest-record fallback
	all:            every series above

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "inflation", "reset": true}

	reset empties the store first (memory and SQL stores only).

ADDING NEW SCENARIOS:
 1. Add the series to demoData
 2. Add a scenario listing it

SEE ALSO:
  - handlers.go: Index endpoints
  - cmd/interestd: "scenarios load" command
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/engine"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type demoSeries struct {
	Name        engine.IndexName
	Description string
	First       engine.Date
	StepMonths  int
	Values      []string
}

func (s demoSeries) records() []engine.IndexRecord {
	records := make([]engine.IndexRecord, len(s.Values))
	for i, v := range s.Values {
		records[i] = engine.IndexRecord{
			Date:  s.First.AddMonths(i * s.StepMonths),
			Value: decimal.RequireFromString(v),
		}
	}
	return records
}

var demoData = map[string]demoSeries{
	"ipca_demo": {
		Name:        "ipca_demo",
		Description: "Consumer price inflation, monthly % (demo)",
		First:       engine.NewDate(2023, time.January, 1),
		StepMonths:  1,
		Values: []string{
			"0.53", "0.84", "0.71", "0.61", "0.23", "-0.08", "0.12", "0.23", "0.26", "0.24", "0.28", "0.56",
			"0.42", "0.83", "0.16", "0.38", "0.46", "0.21", "0.38", "-0.02", "0.44", "0.56", "0.39", "0.52",
		},
	},
	"igpm_demo": {
		Name:        "igpm_demo",
		Description: "General market prices, monthly % (demo)",
		First:       engine.NewDate(2024, time.January, 1),
		StepMonths:  1,
		Values: []string{
			"0.07", "-0.52", "-0.47", "0.31", "0.89", "0.81", "0.61", "0.29", "0.62", "1.52", "1.30", "0.94",
		},
	},
	"selic_demo": {
		Name:        "selic_demo",
		Description: "Policy interest rate, monthly % (demo)",
		First:       engine.NewDate(2024, time.January, 1),
		StepMonths:  1,
		Values: []string{
			"0.97", "0.80", "0.83", "0.89", "0.83", "0.79", "0.91", "0.87", "0.84", "0.93", "0.79", "0.93",
		},
	},
	"sparse_demo": {
		Name:        "sparse_demo",
		Description: "Quarterly series with gaps (demo)",
		First:       engine.NewDate(2024, time.January, 1),
		StepMonths:  3,
		Values:      []string{"1.20", "0.90", "1.05", "1.10"},
	},
}

var scenarios = []ScenarioDTO{
	{
		ID:          "inflation",
		Name:        "Consumer Inflation",
		Description: "Two years of monthly consumer price inflation",
		Indices:     []string{"ipca_demo"},
	},
	{
		ID:          "general-prices",
		Name:        "General Prices",
		Description: "One year of a general price index, including deflation months",
		Indices:     []string{"igpm_demo"},
	},
	{
		ID:          "policy-rate",
		Name:        "Policy Rate",
		Description: "One year of the monthly policy interest rate",
		Indices:     []string{"selic_demo"},
	},
	{
		ID:          "sparse",
		Name:        "Sparse Series",
		Description: "Quarterly values; monthly ranges between them fall back to nearest records",
		Indices:     []string{"sparse_demo"},
	},
	{
		ID:          "all",
		Name:        "All Demo Series",
		Description: "Every demo series",
		Indices:     []string{"ipca_demo", "igpm_demo", "selic_demo", "sparse_demo"},
	},
}

// Scenarios lists the demo data sets.
func Scenarios() []ScenarioDTO { return scenarios }

// LoadDemo registers and fills every series of scenario id. It returns the
// number of records inserted; loading twice inserts nothing new.
func LoadDemo(ctx context.Context, store engine.IndexWriter, id string) (int, error) {
	var scenario *ScenarioDTO
	for i := range scenarios {
		if scenarios[i].ID == id {
			scenario = &scenarios[i]
			break
		}
	}
	if scenario == nil {
		return 0, fmt.Errorf("%w: unknown scenario %q", engine.ErrInvalidInput, id)
	}

	inserted := 0
	for _, name := range scenario.Indices {
		series := demoData[name]
		if err := store.RegisterIndex(ctx, series.Name, series.Description); err != nil {
			return inserted, err
		}
		n, err := store.AppendRecords(ctx, series.Name, series.records())
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the most recently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a demo data set.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	inserted, err := h.LoadDemoScenario(r.Context(), req.ScenarioID, req.Reset)
	if err != nil {
		h.fail(w, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"inserted": inserted,
	})
}

// LoadDemoScenario fills the store with scenario id and makes it current.
// With reset, the store is emptied first.
func (h *Handler) LoadDemoScenario(ctx context.Context, id string, reset bool) (int, error) {
	if reset {
		if err := h.resetStore(ctx); err != nil {
			return 0, err
		}
	}

	inserted, err := LoadDemo(ctx, h.Store, id)
	if err != nil {
		return inserted, err
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	return inserted, nil
}

// ResetStore empties the index store.
func (h *Handler) ResetStore(w http.ResponseWriter, r *http.Request) {
	if err := h.resetStore(r.Context()); err != nil {
		h.fail(w, "Failed to reset store", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) resetStore(ctx context.Context) error {
	rs, ok := h.Store.(resetter)
	if !ok {
		return fmt.Errorf("%w: store cannot be reset", engine.ErrInvalidInput)
	}
	if err := rs.Reset(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}
