package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stashd/internal/httpapi"
	"stashd/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := storage.EnsureLayout(e.cfg.Storage.Root); err != nil {
		return fmt.Errorf("prepare storage root: %w", err)
	}
	store, err := storage.Open(e.cfg.Storage.Root, e.logger)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}

	// Accounts created before the storage root moved, or restored from a
	// backup, get their home directories recreated here.
	accounts, err := e.db.ListAccounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if err := store.EnsureHome(a.ID); err != nil {
			return fmt.Errorf("home directory for %s: %w", a.Email, err)
		}
	}

	api := &httpapi.Server{
		DB:             e.db,
		Sessions:       e.sessions,
		Accounts:       e.accounts,
		Store:          store,
		Logger:         e.logger,
		MaxUploadBytes: e.cfg.MaxUploadBytes(),
	}

	addr := net.JoinHostPort(e.cfg.HTTP.Bind, fmt.Sprint(e.cfg.HTTP.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	e.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
