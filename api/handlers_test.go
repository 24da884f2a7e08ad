/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Calculations with and without monetary correction
- Validation errors and status mapping
- Index listing, range and nearest queries, record append
- Manual import runs
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/engine/store"
	"github.com/warp/interest-engine/importer"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handler, *store.Memory) {
	t.Helper()
	return newTestServerWith(t, store.NewMemory())
}

func newTestServerWith(t *testing.T, mem *store.Memory) (*httptest.Server, *Handler, *store.Memory) {
	t.Helper()
	log, _ := test.NewNullLogger()
	h := NewHandler(mem, log)
	srv := httptest.NewServer(NewRouter(h, nil))
	t.Cleanup(srv.Close)
	return srv, h, mem
}

func seedIndex(t *testing.T, s engine.IndexWriter, name engine.IndexName, records ...engine.IndexRecord) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.RegisterIndex(ctx, name, ""))
	_, err := s.AppendRecords(ctx, name, records)
	require.NoError(t, err)
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// =============================================================================
// CALCULATIONS
// =============================================================================

func TestCalculate_CompoundAnnual(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// GIVEN: 10000 at 12% a year for 365 days
	resp := post(t, srv.URL+"/api/calculations/compound-annual", map[string]any{
		"principal": 10000,
		"rate":      "12",
		"start":     "2024-01-01",
		"end":       "2024-12-30",
	})

	// THEN: Compound interest over 365/30 months
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dto := decode[CalculationDTO](t, resp)

	assert.Equal(t, "compound-annual", dto.Formula)
	assert.Equal(t, "compound_annual", string(dto.Kind))
	assert.Equal(t, 365, dto.Days)
	assert.Equal(t, "10000.00", dto.Principal)
	assert.Equal(t, "1217.64", dto.Interest)
	assert.Equal(t, "11217.64", dto.Total)
	assert.Equal(t, engine.StatusNotRequested, dto.Correction.Status)
	assert.False(t, dto.Correction.Applied)
}

func TestCalculate_WithCorrection(t *testing.T) {
	srv, _, mem := newTestServer(t)
	seedIndex(t, mem, "ipca",
		engine.NewIndexRecord(engine.NewDate(2024, time.January, 1), 1),
		engine.NewIndexRecord(engine.NewDate(2024, time.February, 1), 2),
	)

	// GIVEN: A decimal-comma principal corrected by two index records
	resp := post(t, srv.URL+"/api/calculations/simple-monthly", map[string]any{
		"principal":        "1.000,00",
		"rate":             "1",
		"start":            "2024-01-01",
		"end":              "2024-01-30",
		"apply_correction": true,
		"index":            "ipca",
		"correction_start": "2024-01-01",
		"correction_end":   "2024-02-29",
	})

	// THEN: Interest runs on 1000 x 1.01 x 1.02
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dto := decode[CalculationDTO](t, resp)

	assert.Equal(t, engine.StatusCorrected, dto.Correction.Status)
	assert.True(t, dto.Correction.Applied)
	assert.Equal(t, "1000.00", dto.Correction.Base)
	assert.Equal(t, "1030.20", dto.Correction.Amount)
	assert.Len(t, dto.Correction.Records, 2)
	assert.Equal(t, "10.30", dto.Interest)
	assert.Equal(t, "1040.50", dto.Total)
}

func TestCalculate_StoreFailureStillCalculates(t *testing.T) {
	mem := store.NewMemory()
	seedIndex(t, mem, "ipca")
	mem.Fail = errors.New("connection refused")
	srv, _, _ := newTestServerWith(t, mem)

	resp := post(t, srv.URL+"/api/calculations/simple-monthly", map[string]any{
		"principal":        "1000",
		"rate":             "2",
		"start":            "2024-01-01",
		"end":              "2024-03-30",
		"apply_correction": true,
		"index":            "ipca",
		"correction_start": "2024-01-01",
		"correction_end":   "2024-03-31",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	dto := decode[CalculationDTO](t, resp)

	assert.Equal(t, engine.StatusFault, dto.Correction.Status)
	assert.Contains(t, dto.Correction.Error, "connection refused")
	assert.Equal(t, "60.00", dto.Interest)
}

func TestCalculate_ValidationErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := post(t, srv.URL+"/api/calculations/simple-annual", map[string]any{
		"principal": "abc",
		"rate":      "-1",
		"end":       "2024-12-31",
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Contains(t, body.Fields, "principal")
	assert.Contains(t, body.Fields, "rate")
	assert.Contains(t, body.Fields, "start")
	assert.NotContains(t, body.Fields, "end")
}

func TestCalculate_Overflow_BadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// GIVEN: A rate that compounds past float64 over a century
	resp := post(t, srv.URL+"/api/calculations/compound-annual", map[string]any{
		"principal": "10000",
		"rate":      "1000000",
		"start":     "1924-01-01",
		"end":       "2024-01-01",
	})

	// THEN: 400 with a JSON error body
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, "Calculation failed", body.Error)
	assert.Contains(t, body.Details, engine.ErrNotFinite.Error())
}

func TestWriteJSON_Unencodable_500(t *testing.T) {
	// GIVEN: A value encoding/json refuses
	rec := httptest.NewRecorder()

	// WHEN: Writing it with a success status
	writeJSON(rec, http.StatusOK, map[string]float64{"factor": math.Inf(1)})

	// THEN: The status is 500 and the body is still a JSON error
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to encode response", body.Error)
	assert.NotEmpty(t, body.Details)
}

func TestCalculate_UnknownFormula(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := post(t, srv.URL+"/api/calculations/continuous", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCalculate_BareKindAndOverrides(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// GIVEN: Simple annual pro-rata with day base 20 instead of 30
	resp := post(t, srv.URL+"/api/calculations/simple_annual_prorata", map[string]any{
		"principal": "1000",
		"rate":      "10",
		"start":     "2024-01-01",
		"end":       "2024-06-28",
		"day_base":  20,
	})

	// THEN: 180 days / 20 = 9 months, 9/12 of 10% = 75
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dto := decode[CalculationDTO](t, resp)
	assert.Equal(t, 180, dto.Days)
	assert.Equal(t, "75.00", dto.Interest)
}

func TestListFormulas(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := get(t, srv.URL+"/api/formulas")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	formulas := decode[[]map[string]any](t, resp)
	ids := make([]string, len(formulas))
	for i, f := range formulas {
		ids[i] = f["id"].(string)
	}
	assert.Contains(t, ids, "simple-semiannual")
	assert.Contains(t, ids, "compound-annual")
}

// =============================================================================
// INDICES
// =============================================================================

func TestIndices_AppendAndQuery(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// GIVEN: Records posted for a new index
	resp := post(t, srv.URL+"/api/indices/igpm/records", map[string]any{
		"description": "General prices",
		"records": []map[string]any{
			{"date": "2024-01-01", "value": 0.07},
			{"date": "2024-02-01", "value": "-0.52"},
			{"data": "01/03/2024", "valor": "-0.47"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	appended := decode[AppendRecordsResponse](t, resp)
	assert.Equal(t, 3, appended.Inserted)

	// WHEN: Posted again
	resp = post(t, srv.URL+"/api/indices/igpm/records", map[string]any{
		"records": []map[string]any{{"date": "2024-01-01", "value": 9}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 0, decode[AppendRecordsResponse](t, resp).Inserted)

	// THEN: Listing shows the registry entry with its description kept
	resp = get(t, srv.URL+"/api/indices")
	indices := decode[[]IndexDTO](t, resp)
	require.Len(t, indices, 1)
	assert.Equal(t, IndexDTO{Name: "igpm", Description: "General prices", Records: 3, First: "2024-01-01", Last: "2024-03-01"}, indices[0])

	// THEN: Range query returns the records in order
	resp = get(t, srv.URL+"/api/indices/igpm/records?from=2024-01-15&to=2024-03-01")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []IndexRecordDTO{
		{Date: "2024-02-01", Value: "-0.52"},
		{Date: "2024-03-01", Value: "-0.47"},
	}, decode[[]IndexRecordDTO](t, resp))
}

func TestIndices_Nearest(t *testing.T) {
	srv, _, mem := newTestServer(t)
	seedIndex(t, mem, "ipca",
		engine.NewIndexRecord(engine.NewDate(2024, time.January, 15), 0.42),
		engine.NewIndexRecord(engine.NewDate(2024, time.March, 15), 0.16),
	)

	resp := get(t, srv.URL+"/api/indices/ipca/nearest?from=2024-02-01&to=2024-02-28")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	records := decode[[]IndexRecordDTO](t, resp)
	assert.Equal(t, []IndexRecordDTO{
		{Date: "2024-01-15", Value: "0.42"},
		{Date: "2024-03-15", Value: "0.16"},
	}, records)
}

func TestIndices_Errors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"unknown index", "/api/indices/selic/records?from=2024-01-01&to=2024-12-31", http.StatusNotFound},
		{"invalid name", "/api/indices/SELIC/records?from=2024-01-01&to=2024-12-31", http.StatusBadRequest},
		{"missing dates", "/api/indices/selic/records", http.StatusBadRequest},
		{"bad date", "/api/indices/selic/nearest?from=yesterday&to=2024-12-31", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv.URL+tt.url)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp := post(t, srv.URL+"/api/indices/ipca/records", map[string]any{
		"records": []map[string]any{{"date": "someday", "value": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[ErrorResponse](t, resp).Details, "index ipca, record 1")
}

// =============================================================================
// ADMIN
// =============================================================================

func TestTriggerImport(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date":"2024-01-01","value":0.97},{"date":"2024-02-01","value":0.80}]`))
	}))
	defer feed.Close()

	// GIVEN: No import configured
	srv, _, _ := newTestServer(t)
	resp := post(t, srv.URL+"/api/admin/import", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// GIVEN: One configured source
	mem := store.NewMemory()
	log, _ := test.NewNullLogger()
	h := NewHandler(mem, log)
	sched, err := NewImportScheduler(importer.New(mem, log), []importer.Source{
		{Index: "selic", URL: feed.URL + "/selic.json"},
	}, "", log)
	require.NoError(t, err)
	h.Imports = sched
	srv = httptest.NewServer(NewRouter(h, nil))
	defer srv.Close()

	// WHEN: Triggered manually
	resp = post(t, srv.URL+"/api/admin/import", nil)

	// THEN: The report is returned and kept
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[importer.Report](t, resp)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 2, report.Results[0].Inserted)

	resp = get(t, srv.URL+"/api/admin/import")
	assert.Equal(t, report.RunID, decode[importer.Report](t, resp).RunID)
}

func TestRequestLog(t *testing.T) {
	log, hook := test.NewNullLogger()
	router := NewRouter(NewHandler(store.NewMemory(), log), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/indices/nope/records", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request rejected", entry.Message)
	assert.Equal(t, http.StatusBadRequest, entry.Data["status"])
	assert.NotEmpty(t, entry.Data["request_id"])
}
