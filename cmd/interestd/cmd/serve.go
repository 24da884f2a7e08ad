package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/interest-engine/api"
	"github.com/warp/interest-engine/importer"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the HTTP API and, when import.schedule is set, the periodic
index import.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
for active requests, stops the scheduler and closes the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	h, closeStore, err := a.newHandler(context.Background())
	if err != nil {
		return err
	}
	defer closeStore()

	imp := importer.New(h.Store, a.log)
	sched, err := api.NewImportScheduler(imp, a.cfg.Import.Sources, a.cfg.Import.Schedule, a.log)
	if err != nil {
		return err
	}
	h.Imports = sched
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      api.NewRouter(h, a.cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.WithFields(logrus.Fields{
			"port":   a.cfg.Server.Port,
			"driver": a.cfg.Store.Driver,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	a.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("server stopped")
	return nil
}
