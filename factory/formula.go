/*
Package factory provides JSON to Go formula conversion.

PURPOSE:
  Converts JSON formula definitions into interest.Formula values. Each
  calculator offered to users is a named definition (a preset) that fixes
  the formula kind and its default day base / divisor, so a new calculator
  such as "simple interest, semiannual" needs configuration, not code.

JSON SCHEMA:
  {
    "id": "simple-semiannual",
    "name": "Simple interest (semiannual)",
    "kind": "simple_annual_prorata",
    "day_base": 30,
    "divide_by": 6
  }

DEFAULTS:
  Resolution order for day_base and divide_by:
    1. the calculation input
    2. the definition
    3. the factory (calc.day_base / calc.divide_by, 30 and 12 out of the box)

  SimpleMonthly ignores both and always uses 30.

USAGE:
  f := factory.NewFormulaFactory()
  def, err := f.Lookup("compound-annual")
  formula, err := f.Build(def, input)
  calc.Calculate(ctx, input, formula)

SEE ALSO:
  - interest/formulas.go: The variants built here
  - api/handlers.go: Resolves {formula} route parameters through Lookup
*/
package factory

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/interest"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// FormulaJSON is the JSON representation of a formula definition.
type FormulaJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind"`
	DayBase     int    `json:"day_base,omitempty"`
	DivideBy    int    `json:"divide_by,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

type FormulaFactory struct {
	definitions map[string]FormulaJSON

	// DayBase and DivideBy apply when neither the input nor the definition
	// sets a value. Configured from calc.day_base / calc.divide_by.
	DayBase  int
	DivideBy int
}

// NewFormulaFactory returns a factory loaded with the built-in presets.
func NewFormulaFactory() *FormulaFactory {
	f := &FormulaFactory{
		definitions: make(map[string]FormulaJSON),
		DayBase:     engine.DefaultDayBase,
		DivideBy:    interest.DefaultDivideBy,
	}
	for _, def := range Presets() {
		f.definitions[def.ID] = def
	}
	return f
}

// Presets are the calculators offered out of the box.
func Presets() []FormulaJSON {
	return []FormulaJSON{
		{
			ID:          "simple-monthly",
			Name:        "Simple interest (monthly rate)",
			Description: "Interest = Principal x Rate x (Days / 30)",
			Kind:        string(interest.KindSimpleMonthly),
		},
		{
			ID:          "simple-annual",
			Name:        "Simple interest (annual rate, commercial year)",
			Description: "Interest = Principal x Rate x (Days / 360)",
			Kind:        string(interest.KindSimpleAnnual),
		},
		{
			ID:          "simple-annual-prorata",
			Name:        "Simple interest (annual rate, pro-rata by months)",
			Description: "Interest = Principal x Rate x ((Days / DayBase) / 12)",
			Kind:        string(interest.KindSimpleAnnualProRata),
		},
		{
			ID:          "simple-semiannual",
			Name:        "Simple interest (semiannual rate)",
			Description: "Interest = Principal x Rate x ((Days / DayBase) / 6)",
			Kind:        string(interest.KindSimpleAnnualProRata),
			DivideBy:    6,
		},
		{
			ID:          "compound-annual",
			Name:        "Compound interest (annual rate)",
			Description: "Amount = Principal x (1 + Rate) ^ ((Days / DayBase) / 12)",
			Kind:        string(interest.KindCompoundAnnual),
		},
	}
}

// ParseFormula parses and validates a JSON definition.
func (f *FormulaFactory) ParseFormula(jsonStr string) (FormulaJSON, error) {
	var def FormulaJSON
	if err := json.Unmarshal([]byte(jsonStr), &def); err != nil {
		return FormulaJSON{}, fmt.Errorf("invalid formula JSON: %w", err)
	}
	if err := validate(def); err != nil {
		return FormulaJSON{}, err
	}
	return def, nil
}

// Register adds or replaces a definition.
func (f *FormulaFactory) Register(def FormulaJSON) error {
	if err := validate(def); err != nil {
		return err
	}
	f.definitions[def.ID] = def
	return nil
}

// Lookup finds a definition by ID. A bare kind ("compound_annual") resolves
// to a definition with default parameters.
func (f *FormulaFactory) Lookup(id string) (FormulaJSON, error) {
	if def, ok := f.definitions[id]; ok {
		return def, nil
	}
	for _, k := range interest.Kinds() {
		if string(k) == id {
			return FormulaJSON{ID: id, Name: id, Kind: id}, nil
		}
	}
	return FormulaJSON{}, fmt.Errorf("%w: %q", engine.ErrUnknownFormula, id)
}

// List returns every registered definition ordered by ID.
func (f *FormulaFactory) List() []FormulaJSON {
	out := make([]FormulaJSON, 0, len(f.definitions))
	for _, def := range f.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Build creates the formula for def, letting in override day base and divisor.
func (f *FormulaFactory) Build(def FormulaJSON, in interest.CalculationInput) (interest.Formula, error) {
	dayBase := in.DayBaseOr(orDefault(def.DayBase, orDefault(f.DayBase, engine.DefaultDayBase)))
	divideBy := in.DivideByOr(orDefault(def.DivideBy, orDefault(f.DivideBy, interest.DefaultDivideBy)))

	switch interest.Kind(def.Kind) {
	case interest.KindSimpleMonthly:
		return interest.SimpleMonthly{}, nil
	case interest.KindSimpleAnnual:
		return interest.SimpleAnnualCommercial{DayBase: dayBase}, nil
	case interest.KindSimpleAnnualProRata:
		return interest.SimpleAnnualProRata{DayBase: dayBase, DivideBy: divideBy}, nil
	case interest.KindCompoundAnnual:
		return interest.CompoundAnnual{DayBase: dayBase}, nil
	default:
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownFormula, def.Kind)
	}
}

func validate(def FormulaJSON) error {
	if def.ID == "" {
		return fmt.Errorf("formula id is required")
	}
	known := false
	for _, k := range interest.Kinds() {
		if string(k) == def.Kind {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", engine.ErrUnknownFormula, def.Kind)
	}
	if def.DayBase < 0 || def.DivideBy < 0 {
		return fmt.Errorf("formula %s: day_base and divide_by must not be negative", def.ID)
	}
	return nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
