package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/solatis/adjrules/internal/core/store"
	"github.com/spf13/cobra"
)

var pushesCmd = &cobra.Command{
	Use:   "pushes",
	Short: "Show the log of updates sent to the API",
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		ruleID, _ := cmd.Flags().GetInt64("rule-id")
		limit, _ := cmd.Flags().GetInt("limit")

		var (
			pushes []store.Push
			err    error
		)
		if ruleID != 0 {
			pushes, err = s.pushes.ByRule(ctx, ruleID)
		} else {
			pushes, err = s.pushes.Recent(ctx, limit)
		}
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), pushes)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PUSHED AT\tRULE\tVERSION\tSTATUS\tERROR")
		for _, p := range pushes {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", p.PushedAt.Format("2006-01-02 15:04:05"), p.RuleID, p.VersionNum, p.StatusCode, p.Error)
		}
		return tw.Flush()
	}),
}

func init() {
	rootCmd.AddCommand(pushesCmd)
	pushesCmd.Flags().Int64("rule-id", 0, "only pushes for this rule")
	pushesCmd.Flags().Int("limit", 20, "maximum entries when listing all rules")
	pushesCmd.Flags().Bool("json", false, "print entries as JSON, payloads included")
}
