/*
Package importer feeds index series into a writable store.

PURPOSE:
  The calculation core only reads index series. This package is how they
  get there: each Source names an index, a format and a location (file
  path or URL). Run fetches every source concurrently, parses it, registers
  the index and appends the records. Dates already stored are skipped, so
  running the same sources twice is harmless.

FAILURE MODEL:
  A failing source never stops the others. Each outcome is recorded in the
  Report; Run returns an error only when every source failed.

USAGE:
  imp := importer.New(store, log)
  report, err := imp.Run(ctx, cfg.Import.Sources)

SEE ALSO:
  - parse.go: File formats
  - api/scheduler.go: Periodic runs
*/
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/interest-engine/engine"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// SOURCE
// =============================================================================

// Source describes where one index series comes from.
type Source struct {
	Index       string `mapstructure:"index" yaml:"index" json:"index"`
	Description string `mapstructure:"description" yaml:"description" json:"description,omitempty"`
	Format      Format `mapstructure:"format" yaml:"format" json:"format,omitempty"`
	Path        string `mapstructure:"path" yaml:"path" json:"path,omitempty"`
	URL         string `mapstructure:"url" yaml:"url" json:"url,omitempty"`

	// Selector picks the table for the html format.
	Selector string `mapstructure:"selector" yaml:"selector" json:"selector,omitempty"`
}

// Location is the URL or path, whichever is set.
func (s Source) Location() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// Validate checks the source and fills Format from the file extension.
func (s *Source) Validate() error {
	if s.Index != "" {
		if err := engine.IndexName(s.Index).Validate(); err != nil {
			return err
		}
	}
	if s.Path == "" && s.URL == "" {
		return fmt.Errorf("%w: source for %q needs a path or url", engine.ErrInvalidInput, s.Index)
	}
	if s.Format == "" {
		s.Format = formatFromExt(s.Location())
	}
	switch s.Format {
	case FormatXML, FormatHTML, FormatYAML, FormatJSON:
	default:
		return fmt.Errorf("%w: unknown format %q for %s", engine.ErrInvalidInput, s.Format, s.Location())
	}
	if s.Index == "" && s.Format != FormatYAML {
		return fmt.Errorf("%w: source %s needs an index", engine.ErrInvalidInput, s.Location())
	}
	return nil
}

func formatFromExt(loc string) Format {
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		loc = loc[:i]
	}
	switch strings.ToLower(filepath.Ext(loc)) {
	case ".xml":
		return FormatXML
	case ".html", ".htm":
		return FormatHTML
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return ""
}

// ImportError ties a failure to the source that caused it.
type ImportError struct {
	Index  string
	Source string
	Err    error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s from %s: %v", e.Index, e.Source, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// =============================================================================
// REPORT
// =============================================================================

type Result struct {
	Index    string `json:"index"`
	Source   string `json:"source"`
	Parsed   int    `json:"parsed"`
	Inserted int    `json:"inserted"`
	Error    string `json:"error,omitempty"`

	Err error `json:"-"`
}

type Report struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Results  []Result  `json:"results"`
}

// Failed counts sources that did not import.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Inserted totals new records over all sources.
func (r *Report) Inserted() int {
	n := 0
	for _, res := range r.Results {
		n += res.Inserted
	}
	return n
}

// =============================================================================
// IMPORTER
// =============================================================================

type Importer struct {
	Store  engine.IndexWriter
	Client *http.Client
	Log    logrus.FieldLogger

	// Concurrency caps parallel sources. Zero means 4.
	Concurrency int
}

func New(store engine.IndexWriter, log logrus.FieldLogger) *Importer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{
		Store:  store,
		Client: &http.Client{Timeout: 30 * time.Second},
		Log:    log,
	}
}

// Run imports every source. Results keep the order of sources.
func (imp *Importer) Run(ctx context.Context, sources []Source) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
		Results: make([]Result, len(sources)),
	}
	log := imp.Log.WithField("run_id", report.RunID)

	limit := imp.Concurrency
	if limit <= 0 {
		limit = 4
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			res := imp.runOne(gctx, src)
			if res.Err != nil {
				res.Error = res.Err.Error()
				log.WithFields(logrus.Fields{
					"index":  res.Index,
					"source": res.Source,
				}).WithError(res.Err).Warn("index import failed")
			} else {
				log.WithFields(logrus.Fields{
					"index":    res.Index,
					"parsed":   res.Parsed,
					"inserted": res.Inserted,
				}).Info("index imported")
			}
			mu.Lock()
			report.Results[i] = res
			mu.Unlock()
			return nil // non-fatal
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Finished = time.Now().UTC()

	if len(sources) > 0 && report.Failed() == len(sources) {
		errs := make([]error, 0, len(sources))
		for _, res := range report.Results {
			errs = append(errs, res.Err)
		}
		return report, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}
	return report, nil
}

func (imp *Importer) runOne(ctx context.Context, src Source) Result {
	res := Result{Index: src.Index, Source: src.Location()}
	fail := func(err error) Result {
		res.Err = &ImportError{Index: res.Index, Source: res.Source, Err: err}
		return res
	}

	if err := src.Validate(); err != nil {
		return fail(err)
	}

	body, err := imp.open(ctx, src)
	if err != nil {
		return fail(err)
	}
	defer body.Close()

	name := engine.IndexName(src.Index)
	description := src.Description

	var records []engine.IndexRecord
	if src.Format == FormatYAML {
		seed, err := ParseYAML(body)
		if err != nil {
			return fail(err)
		}
		if name == "" {
			name = engine.IndexName(seed.Index)
			res.Index = seed.Index
		}
		if description == "" {
			description = seed.Description
		}
		if records, err = seed.Records(); err != nil {
			return fail(err)
		}
	} else if records, err = Parse(src.Format, body, src.Selector); err != nil {
		return fail(err)
	}
	res.Parsed = len(records)

	if err := imp.Store.RegisterIndex(ctx, name, description); err != nil {
		return fail(err)
	}
	inserted, err := imp.Store.AppendRecords(ctx, name, records)
	if err != nil {
		return fail(err)
	}
	res.Inserted = inserted
	return res
}

func (imp *Importer) open(ctx context.Context, src Source) (io.ReadCloser, error) {
	if src.URL == "" {
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", src.Path, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := imp.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}
