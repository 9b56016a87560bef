package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solatis/adjrules/internal/core/config"
	"github.com/solatis/adjrules/internal/core/db"
	"github.com/solatis/adjrules/internal/core/store"
	"github.com/solatis/adjrules/internal/core/wfm"
	"github.com/spf13/cobra"
)

func addConnectionFlag(cmd *cobra.Command) {
	cmd.Flags().String("connection", "", "saved connection profile (defaults to the api.* config keys)")
}

// newAPIClient builds an authenticated client from a saved profile or the
// api.* config keys. Secrets always come from the environment.
func newAPIClient(ctx context.Context, cmd *cobra.Command, cfg *config.Config, queries *db.Queries) (*wfm.Client, error) {
	creds := wfm.Credentials{
		BaseURL:  cfg.API.BaseURL,
		Username: cfg.API.Username,
		ClientID: cfg.API.ClientID,
	}

	if name, _ := cmd.Flags().GetString("connection"); name != "" {
		conn, err := store.NewConnectionStore(queries).Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("connection %q: %w", name, err)
		}
		creds.BaseURL, creds.Username, creds.ClientID = conn.BaseURL, conn.Username, conn.ClientID
	}

	secrets := config.APICredentials()
	creds.Password, creds.ClientSecret = secrets.Password, secrets.ClientSecret

	switch {
	case creds.BaseURL == "":
		return nil, fmt.Errorf("no API base URL (set api.base_url or use --connection)")
	case creds.Username == "":
		return nil, fmt.Errorf("no API username (set api.username or use --connection)")
	case creds.Password == "":
		return nil, fmt.Errorf("%s must be set", config.EnvAPIPassword)
	}

	client := wfm.NewClient(creds, wfm.WithTimeout(cfg.API.Timeout), wfm.WithLogger(slog.Default()))
	if _, err := client.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return client, nil
}
