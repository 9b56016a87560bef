package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show or clear recently opened rule files",
}

var recentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent files, most recent first",
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		files, err := s.recent.List(ctx)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f.Path)
		}
		return nil
	}),
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recent files",
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		return s.recent.Clear(ctx)
	}),
}

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.AddCommand(recentListCmd, recentClearCmd)
}
