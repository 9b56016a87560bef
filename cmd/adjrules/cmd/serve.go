package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/solatis/adjrules/internal/core/auth"
	"github.com/solatis/adjrules/internal/core/config"
	"github.com/solatis/adjrules/internal/core/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP service",
	Long: `Serves the extract, update-payload and export operations over HTTP.
API key authentication is enabled when ADJ_HMAC_SECRET is set.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "127.0.0.1", "HTTP server host")
	serveCmd.Flags().Int("port", 8087, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Server.Port = port
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}

	authenticator := auth.NewAuthenticator(nil, nil, slog.Default())
	if len(secrets) > 0 {
		database, queries, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		authenticator = auth.NewAuthenticator(secrets, queries, slog.Default())
	} else {
		slog.Warn("no HMAC secrets configured, API key authentication disabled", "env", config.EnvHMACSecret)
	}

	httpServer, err := server.NewHTTPServer(cfg.Server, authenticator, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("starting adjrules service", "version", Version, "host", cfg.Server.Host, "port", cfg.Server.Port)
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		slog.Info("shutting down gracefully")
		return httpServer.Shutdown(ctx)
	}
}
