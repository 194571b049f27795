package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/bookmeta/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port   string
		memory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the metadata HTTP API",
		Long: `Starts the metadata API on the specified port.

Routes:
  GET  /api/metadata/sources
  GET  /api/metadata/search?q=&locale=&user=
  GET  /api/metadata/auto?q=&locale=
  GET  /api/books/{id}
  PUT  /api/books/{id}
  POST /api/books/{id}/metadata
  POST /api/books/{id}/enrich
  POST /api/settings/reload
  GET  /healthcheck`,
		Example: `  # Start server on default port 8888
  bookmeta serve

  # Start server on custom port with a throwaway book store
  bookmeta serve --port 3000 --memory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(memory, func(a *app) error {
				handler := handlers.New(a.service, a.settings)

				addr := ":" + port
				server := &http.Server{
					Addr:              addr,
					Handler:           handler.Routes(),
					ReadHeaderTimeout: 10 * time.Second,
				}

				// Start server in goroutine
				serverErr := make(chan error, 1)
				go func() {
					slog.Info("Bookmeta API available", "addr", addr, "url", "http://localhost"+addr, "settings", a.cfg.SettingsPath)
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						serverErr <- err
					}
				}()

				// Wait for context cancellation (Ctrl+C) or server error
				select {
				case <-cmd.Context().Done():
					slog.Info("Shutting down server...")
					// Give server 5 seconds to shut down gracefully
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := server.Shutdown(shutdownCtx); err != nil {
						slog.Error("Server shutdown failed", "err", err)
						return err
					}
					slog.Info("Server stopped")
					return nil
				case err := <-serverErr:
					return err
				}
			})
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().BoolVar(&memory, "memory", false, "Keep books in memory instead of SQLite")

	return cmd
}
