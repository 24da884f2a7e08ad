/*
parse.go - Index series file formats

FORMATS:
  xml   Central-bank series export:
          <serie><item><data>15/01/2024</data><valor>0,42</valor></item>...</serie>
        Any <item> with <data> and <valor> children is read; the root name
        does not matter.

  html  First table matching the selector (default "table"). Each body row
        with at least two cells is read as date, value. Rows without <td>
        cells (headers) are skipped.

  yaml  Seed file:
          index: ipca
          description: Consumer prices
          records:
            - {date: 2024-01-15, value: "0.42"}

  json  Array of {"date": ..., "value": ...}. The export keys "data" and
        "valor" are accepted as well. Values may be numbers or strings.

  Dates accept the layouts of engine.ParseDateStrict. Values accept a
  decimal comma in every format (in JSON only when sent as a string). A
  row without a value, or a bad row, fails the whole file with an
  *engine.RecordError naming the row.
*/
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/beevik/etree"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/interest"
	"gopkg.in/yaml.v3"
)

var errMissingValue = errors.New("missing value")

// Format names a series file format.
type Format string

const (
	FormatXML  Format = "xml"
	FormatHTML Format = "html"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Parse reads records in format f from r.
func Parse(f Format, r io.Reader, selector string) ([]engine.IndexRecord, error) {
	switch f {
	case FormatXML:
		return ParseXML(r)
	case FormatHTML:
		return ParseHTML(r, selector)
	case FormatYAML:
		seed, err := ParseYAML(r)
		if err != nil {
			return nil, err
		}
		return seed.Records()
	case FormatJSON:
		return ParseJSON(r)
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
}

func record(line int, date, value string) (engine.IndexRecord, error) {
	if strings.TrimSpace(value) == "" {
		return engine.IndexRecord{}, &engine.RecordError{Line: line, Err: errMissingValue}
	}
	d, err := engine.ParseDateStrict(strings.TrimSpace(date))
	if err != nil {
		return engine.IndexRecord{}, &engine.RecordError{Line: line, Err: err}
	}
	v, err := interest.ParseAmount(value)
	if err != nil {
		return engine.IndexRecord{}, &engine.RecordError{Line: line, Err: err}
	}
	return engine.IndexRecord{Date: d, Value: v}, nil
}

// =============================================================================
// XML
// =============================================================================

func ParseXML(r io.Reader) ([]engine.IndexRecord, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	var records []engine.IndexRecord
	for i, item := range doc.FindElements("//item") {
		date := item.FindElement("./data")
		value := item.FindElement("./valor")
		if date == nil || value == nil {
			return nil, &engine.RecordError{Line: i + 1, Err: fmt.Errorf("item needs <data> and <valor>")}
		}
		rec, err := record(i+1, date.Text(), value.Text())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// =============================================================================
// HTML
// =============================================================================

func ParseHTML(r io.Reader, selector string) ([]engine.IndexRecord, error) {
	if selector == "" {
		selector = "table"
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no element matches %q", selector)
	}

	var (
		records []engine.IndexRecord
		rowErr  error
	)
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}
		rec, err := record(i+1, cells.Eq(0).Text(), strings.TrimSpace(cells.Eq(1).Text()))
		if err != nil {
			rowErr = err
			return false
		}
		records = append(records, rec)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return records, nil
}

// =============================================================================
// YAML
// =============================================================================

// Seed is a YAML seed file: one series with its records.
type Seed struct {
	Index       string       `yaml:"index"`
	Description string       `yaml:"description"`
	Rows        []SeedRecord `yaml:"records"`
}

type SeedRecord struct {
	Date  string `yaml:"date"`
	Value string `yaml:"value"`
}

func ParseYAML(r io.Reader) (*Seed, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &seed, nil
}

// Records converts the seed rows.
func (s *Seed) Records() ([]engine.IndexRecord, error) {
	records := make([]engine.IndexRecord, 0, len(s.Rows))
	for i, row := range s.Rows {
		rec, err := record(i+1, row.Date, row.Value)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// =============================================================================
// JSON
// =============================================================================

// JSONValue keeps a JSON string or number as text.
type JSONValue string

func (v *JSONValue) UnmarshalJSON(data []byte) error {
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
		*v = JSONValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = JSONValue(n.String())
	return nil
}

// JSONRecord is one element of a JSON series. The export keys data/valor
// stand in for date/value when those are absent.
type JSONRecord struct {
	Date  string    `json:"date"`
	Value JSONValue `json:"value"`

	Data  string    `json:"data"`
	Valor JSONValue `json:"valor"`
}

func ParseJSON(r io.Reader) ([]engine.IndexRecord, error) {
	var rows []JSONRecord
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return FromJSON(rows)
}

// FromJSON converts decoded JSON rows.
func FromJSON(rows []JSONRecord) ([]engine.IndexRecord, error) {
	records := make([]engine.IndexRecord, 0, len(rows))
	for i, row := range rows {
		date := row.Date
		if date == "" {
			date = row.Data
		}
		value := row.Value
		if value == "" {
			value = row.Valor
		}
		rec, err := record(i+1, date, string(value))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
