package cmd

import (
	"context"

	"github.com/solatis/adjrules/internal/core/store"
	"github.com/spf13/cobra"
)

// stores bundles the persistent stores for one command run.
type stores struct {
	connections *store.ConnectionStore
	recent      *store.RecentFiles
	pushes      *store.PushLog
	apiKeys     *store.APIKeys
}

type storeRunE func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error

// withStore opens the database for the duration of fn.
func withStore(fn storeRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, queries, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		return fn(ctx, cmd, args, &stores{
			connections: store.NewConnectionStore(queries),
			recent:      store.NewRecentFiles(queries, cfg.RecentMaxFiles),
			pushes:      store.NewPushLog(queries),
			apiKeys:     store.NewAPIKeys(queries),
		})
	}
}
