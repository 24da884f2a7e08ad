/*
handlers.go - HTTP API handlers for the interest engine

PURPOSE:
  Exposes calculations and index series via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the core.

ENDPOINTS:
  Calculations:
    GET    /api/formulas                     List formula definitions
    POST   /api/calculations/{formula}       Run one calculation

  Indices:
    GET    /api/indices                      Registry listing
    GET    /api/indices/{name}/records       Records in ?from=&to=
    GET    /api/indices/{name}/nearest       Nearest records around ?from=&to=
    POST   /api/indices/{name}/records       Register (if needed) and append

  Admin:
    POST   /api/admin/import                 Run configured import sources now
    GET    /api/admin/import                 Last import report

  Scenarios:
    GET    /api/scenarios                    List demo data sets
    POST   /api/scenarios/load               Load a demo data set

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (interest.ParseInput)
  3. Call the core (factory -> calculator)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, empty period
  - 404: Unknown index
  - 500: Internal errors
  A failing index store never fails a calculation; the correction status
  in the response says what happened.

SECURITY NOTE:
  No authentication. Import sources come from configuration only; the API
  cannot point the importer at arbitrary paths.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data sets
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/factory"
	"github.com/warp/interest-engine/importer"
	"github.com/warp/interest-engine/interest"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// resetter is implemented by stores that can be emptied (memory, SQL).
type resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      engine.IndexWriter
	Calculator *interest.Calculator
	Formulas   *factory.FormulaFactory
	Imports    *ImportScheduler
	Log        logrus.FieldLogger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the core over store.
func NewHandler(store engine.IndexWriter, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:      store,
		Calculator: interest.NewCalculator(engine.NewCorrector(store, log), log),
		Formulas:   factory.NewFormulaFactory(),
		Log:        log,
	}
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// ListFormulas returns the formula definitions.
func (h *Handler) ListFormulas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Formulas.List())
}

// Calculate runs one calculation with the formula named in the URL.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	def, err := h.Formulas.Lookup(chi.URLParam(r, "formula"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown formula", err)
		return
	}

	var req CalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := interest.ParseInput(req.Raw())
	if err != nil {
		var ve *interest.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid input", Fields: ve.Fields})
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid input", err)
		return
	}

	formula, err := h.Formulas.Build(def, in)
	if err != nil {
		h.fail(w, "Failed to build formula", err)
		return
	}

	calc, err := h.Calculator.Calculate(r.Context(), in, formula)
	if err != nil {
		h.fail(w, "Calculation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, NewCalculationDTO(def, calc))
}

// =============================================================================
// INDEX HANDLERS
// =============================================================================

// ListIndices returns the registry.
func (h *Handler) ListIndices(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Store.ListIndices(r.Context())
	if err != nil {
		h.fail(w, "Failed to list indices", err)
		return
	}

	dtos := make([]IndexDTO, len(infos))
	for i, info := range infos {
		dtos[i] = toIndexDTO(info)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRecords returns the records of an index within ?from=&to=.
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	name, rng, err := indexQuery(r)
	if err != nil {
		h.fail(w, "Invalid query", err)
		return
	}

	records, err := h.Store.QueryRange(r.Context(), name, rng.Start, rng.End)
	if err != nil {
		h.fail(w, "Failed to query index", err)
		return
	}
	writeJSON(w, http.StatusOK, toIndexRecordDTOs(records))
}

// GetNearest returns the nearest-record fallback for ?from=&to=.
func (h *Handler) GetNearest(w http.ResponseWriter, r *http.Request) {
	name, rng, err := indexQuery(r)
	if err != nil {
		h.fail(w, "Invalid query", err)
		return
	}

	records, err := h.Store.QueryNearest(r.Context(), name, rng.Start, rng.End)
	if err != nil {
		h.fail(w, "Failed to query index", err)
		return
	}
	writeJSON(w, http.StatusOK, toIndexRecordDTOs(records))
}

// AppendRecords registers the index if needed and appends the body's records.
func (h *Handler) AppendRecords(w http.ResponseWriter, r *http.Request) {
	name := engine.IndexName(chi.URLParam(r, "name"))
	if err := name.Validate(); err != nil {
		h.fail(w, "Invalid index name", err)
		return
	}

	var req AppendRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records, err := importer.FromJSON(req.Records)
	if err != nil {
		var recErr *engine.RecordError
		if errors.As(err, &recErr) {
			recErr.Index = name
		}
		h.fail(w, "Invalid records", err)
		return
	}

	ctx := r.Context()
	if err := h.ensureRegistered(ctx, name, req.Description); err != nil {
		h.fail(w, "Failed to register index", err)
		return
	}

	inserted, err := h.Store.AppendRecords(ctx, name, records)
	if err != nil {
		h.fail(w, "Failed to append records", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"index":    name,
		"received": len(records),
		"inserted": inserted,
	}).Info("index records appended")

	writeJSON(w, http.StatusCreated, AppendRecordsResponse{
		Index:    string(name),
		Received: len(records),
		Inserted: inserted,
	})
}

// ensureRegistered registers name unless it exists. An existing description
// is only replaced when a new one is given.
func (h *Handler) ensureRegistered(ctx context.Context, name engine.IndexName, description string) error {
	infos, err := h.Store.ListIndices(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.Name == name && description == "" {
			return nil
		}
	}
	return h.Store.RegisterIndex(ctx, name, description)
}

func indexQuery(r *http.Request) (engine.IndexName, engine.DateRange, error) {
	name := engine.IndexName(chi.URLParam(r, "name"))
	if err := name.Validate(); err != nil {
		return "", engine.DateRange{}, err
	}
	from, err := engine.ParseDateStrict(r.URL.Query().Get("from"))
	if err != nil {
		return "", engine.DateRange{}, err
	}
	to, err := engine.ParseDateStrict(r.URL.Query().Get("to"))
	if err != nil {
		return "", engine.DateRange{}, err
	}
	return name, engine.NewDateRange(from, to), nil
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerImport runs the configured import sources now.
func (h *Handler) TriggerImport(w http.ResponseWriter, r *http.Request) {
	if h.Imports == nil || len(h.Imports.Sources) == 0 {
		writeError(w, http.StatusBadRequest, "No import sources configured", nil)
		return
	}

	report, err := h.Imports.RunNow(r.Context())
	if err != nil && report == nil {
		h.fail(w, "Import failed", err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, report)
}

// LastImport returns the report of the most recent import run.
func (h *Handler) LastImport(w http.ResponseWriter, r *http.Request) {
	if h.Imports == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Imports.LastReport())
}

// =============================================================================
// HELPERS
// =============================================================================

// writeJSON marshals before writing the header, so an unencodable value
// becomes a 500 with a JSON body instead of a status with nothing after it.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "Failed to encode response", Details: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps err to a status code. Internal errors are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
