/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the calculation core from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Monetary amounts leave the API as strings with two decimals ("1217.64").
  Intermediate values (months, factors, exponents) stay JSON numbers.

REQUEST FIELDS:
  Calculation requests carry form values. Each may be sent as a JSON string
  ("1.234,56") or a JSON number (1234.56); both reach interest.ParseInput as
  text.

SEE ALSO:
  - handlers.go: Uses these types
  - interest/input.go: RawInput
*/
package api

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/factory"
	"github.com/warp/interest-engine/importer"
	"github.com/warp/interest-engine/interest"
)

// =============================================================================
// FORM VALUES
// =============================================================================

// FormValue accepts a JSON string or number and keeps its text.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FormValue(n.String())
	return nil
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// CalculationRequest is the body of POST /api/calculations/{formula}.
type CalculationRequest struct {
	Principal FormValue `json:"principal"`
	Rate      FormValue `json:"rate"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	DayBase   FormValue `json:"day_base,omitempty"`
	DivideBy  FormValue `json:"divide_by,omitempty"`

	ApplyCorrection bool   `json:"apply_correction"`
	Index           string `json:"index,omitempty"`
	CorrectionStart string `json:"correction_start,omitempty"`
	CorrectionEnd   string `json:"correction_end,omitempty"`
	Nearest         bool   `json:"nearest,omitempty"`
}

func (r CalculationRequest) Raw() interest.RawInput {
	return interest.RawInput{
		Principal:       string(r.Principal),
		Rate:            string(r.Rate),
		Start:           r.Start,
		End:             r.End,
		DayBase:         string(r.DayBase),
		DivideBy:        string(r.DivideBy),
		ApplyCorrection: r.ApplyCorrection,
		Index:           r.Index,
		CorrectionStart: r.CorrectionStart,
		CorrectionEnd:   r.CorrectionEnd,
		Nearest:         r.Nearest,
	}
}

// CalculationDTO is the full outcome of one calculation.
type CalculationDTO struct {
	Formula     string        `json:"formula"`
	FormulaName string        `json:"formula_name"`
	Kind        interest.Kind `json:"kind"`
	Principal   string        `json:"principal"`
	Rate        string        `json:"rate"`
	Start       string        `json:"start"`
	End         string        `json:"end"`
	Days        int           `json:"days"`
	Correction  CorrectionDTO `json:"correction"`
	Interest    string        `json:"interest"`
	Total       string        `json:"total"`
	Details     any           `json:"details"` // the formula's interest.*Result record
}

// CorrectionDTO reports whether and how the principal was corrected.
type CorrectionDTO struct {
	Status  engine.CorrectionStatus `json:"status"`
	Applied bool                    `json:"applied"`
	Index   string                  `json:"index,omitempty"`
	Start   string                  `json:"start,omitempty"`
	End     string                  `json:"end,omitempty"`
	Base    string                  `json:"base"`
	Amount  string                  `json:"amount"`
	Factor  float64                 `json:"factor"`
	Records []IndexRecordDTO        `json:"records"`
	Error   string                  `json:"error,omitempty"`
}

// NewCalculationDTO renders c, computed with def, for clients.
func NewCalculationDTO(def factory.FormulaJSON, c *interest.Calculation) CalculationDTO {
	summary := c.Result.Summary()
	return CalculationDTO{
		Formula:     def.ID,
		FormulaName: def.Name,
		Kind:        c.Formula,
		Principal:   c.Input.Principal.StringFixed(2),
		Rate:        c.Input.Rate.String(),
		Start:       c.Input.Range.Start.String(),
		End:         c.Input.Range.End.String(),
		Days:        c.Days,
		Correction:  toCorrectionDTO(c.Correction),
		Interest:    summary.Interest.StringFixed(2),
		Total:       summary.Total.StringFixed(2),
		Details:     c.Result,
	}
}

func toCorrectionDTO(c engine.Correction) CorrectionDTO {
	dto := CorrectionDTO{
		Status:  c.Status,
		Applied: c.Status.Applied(),
		Index:   string(c.Index),
		Start:   c.Range.Start.String(),
		End:     c.Range.End.String(),
		Base:    cents(c.Base),
		Amount:  cents(c.Amount),
		Factor:  c.Factor,
		Records: toIndexRecordDTOs(c.Records),
	}
	if c.Err != nil {
		dto.Error = c.Err.Error()
	}
	return dto
}

func cents(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero.StringFixed(2)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// =============================================================================
// INDICES
// =============================================================================

type IndexDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Records     int    `json:"records"`
	First       string `json:"first,omitempty"`
	Last        string `json:"last,omitempty"`
}

type IndexRecordDTO struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

func toIndexDTO(info engine.IndexInfo) IndexDTO {
	return IndexDTO{
		Name:        string(info.Name),
		Description: info.Description,
		Records:     info.Records,
		First:       info.First.String(),
		Last:        info.Last.String(),
	}
}

func toIndexRecordDTOs(records []engine.IndexRecord) []IndexRecordDTO {
	dtos := make([]IndexRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = IndexRecordDTO{Date: r.Date.String(), Value: r.Value.String()}
	}
	return dtos
}

// AppendRecordsRequest is the body of POST /api/indices/{name}/records.
type AppendRecordsRequest struct {
	Description string                `json:"description,omitempty"`
	Records     []importer.JSONRecord `json:"records"`
}

type AppendRecordsResponse struct {
	Index    string `json:"index"`
	Received int    `json:"received"`
	Inserted int    `json:"inserted"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Indices     []string `json:"indices"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	Reset      bool   `json:"reset,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
