/*
scheduler.go - Periodic index import

PURPOSE:
  Keeps index series current by running the configured import sources on
  a cron schedule (import.schedule). The same runner backs the manual
  POST /api/admin/import endpoint, so both paths share one report.

DESIGN:
  - robfig/cron runs the job; overlapping runs are skipped
  - A panic inside a run is recovered and logged
  - An empty schedule means manual runs only

USAGE:
  s, err := api.NewImportScheduler(imp, cfg.Import.Sources, cfg.Import.Schedule, log)
  s.Start()
  // ... later
  s.Stop()

SEE ALSO:
  - importer/importer.go: What a run does
  - handlers.go: TriggerImport endpoint (manual run)
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/warp/interest-engine/importer"
)

// ImportScheduler runs import sources on a schedule and on demand.
type ImportScheduler struct {
	Importer *importer.Importer
	Sources  []importer.Source
	Schedule string
	Log      logrus.FieldLogger

	// RunTimeout bounds a scheduled run. Manual runs use the request context.
	RunTimeout time.Duration

	cron *cron.Cron
	mu   sync.Mutex
	run  sync.Mutex
	last *importer.Report
}

// NewImportScheduler validates schedule (standard 5-field cron, or empty).
func NewImportScheduler(imp *importer.Importer, sources []importer.Source, schedule string, log logrus.FieldLogger) (*ImportScheduler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid import schedule %q: %w", schedule, err)
		}
	}
	return &ImportScheduler{
		Importer:   imp,
		Sources:    sources,
		Schedule:   schedule,
		Log:        log,
		RunTimeout: 10 * time.Minute,
	}, nil
}

// Start begins the scheduler. It is a no-op without a schedule or sources.
func (s *ImportScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Schedule == "" || len(s.Sources) == 0 {
		s.Log.Info("import scheduler disabled")
		return nil
	}
	if s.cron != nil {
		return nil
	}

	logger := cron.PrintfLogger(s.Log)
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(s.Schedule, s.scheduledRun); err != nil {
		return fmt.Errorf("failed to schedule import: %w", err)
	}
	c.Start()
	s.cron = c

	s.Log.WithField("schedule", s.Schedule).Info("import scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running import to finish.
func (s *ImportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.Log.Info("import scheduler stopped")
}

func (s *ImportScheduler) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), s.RunTimeout)
	defer cancel()
	s.RunNow(ctx)
}

// RunNow imports every source once. Runs never overlap.
func (s *ImportScheduler) RunNow(ctx context.Context) (*importer.Report, error) {
	s.run.Lock()
	defer s.run.Unlock()

	report, err := s.Importer.Run(ctx, s.Sources)
	if report != nil {
		s.mu.Lock()
		s.last = report
		s.mu.Unlock()

		s.Log.WithFields(logrus.Fields{
			"run_id":   report.RunID,
			"sources":  len(report.Results),
			"failed":   report.Failed(),
			"inserted": report.Inserted(),
		}).Info("import run finished")
	}
	return report, err
}

// LastReport returns the most recent run's report, or nil.
func (s *ImportScheduler) LastReport() *importer.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
