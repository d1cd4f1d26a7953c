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

	"journal/api"
	"journal/api/router/handlers"
	"journal/config"
	"journal/logger"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var serverPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the journal JSON API server",
	Long: `Starts the HTTP API under /api. Press Ctrl+C to shut down gracefully; in-flight
requests get a few seconds to finish before the database is closed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("--- Server Command: Run ---")

		portToUse := serverPort
		if !cmd.Flags().Changed("port") {
			portToUse = config.AppConfig.Server.Port
			logger.Info("Server Command: Port flag not set, using config value: %s", portToUse)
		}
		if portToUse == "" {
			logger.Error("Server Command: Server port is empty after checking flag and config, defaulting to 3000")
			portToUse = "3000"
		}

		h, err := do.Invoke[*handlers.Handler](injector)
		if err != nil {
			return fmt.Errorf("building handlers: %w", err)
		}
		router := api.NewRouter(h, api.Options{CORSAllowedOrigins: config.AppConfig.Server.CORSAllowedOrigins})

		server := &http.Server{
			Addr:              ":" + portToUse,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("Server Command: Listening on :%s", portToUse)
			fmt.Fprintf(cmd.OutOrStdout(), "journal API listening on http://localhost:%s/api\n", portToUse)
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Server Command: ListenAndServe error: %v", err)
				return err
			}
			return nil
		case <-ctx.Done():
			logger.Info("Server Command: Shutdown signal received...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server Command: Graceful shutdown failed: %v", err)
			return err
		}
		logger.Info("Server Command: Gracefully stopped.")
		return nil
	},
}

func init() {
	serverCmd.Flags().StringVarP(&serverPort, "port", "p", "3000", "Port for the server to listen on")
	rootCmd.AddCommand(serverCmd)
}
