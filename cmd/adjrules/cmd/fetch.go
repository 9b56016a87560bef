package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/solatis/adjrules/internal/core/db"
	"github.com/solatis/adjrules/internal/rules"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Load adjustment rules from the API and print trigger records",
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addConnectionFlag(fetchCmd)
	addFilterFlags(fetchCmd)
	fetchCmd.Flags().Int64("rule-id", 0, "fetch a single rule instead of the full list")
	fetchCmd.Flags().String("save", "", "also write the raw API response to this file")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var queries *db.Queries
	if name, _ := cmd.Flags().GetString("connection"); name != "" {
		database, q, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		queries = q
	}

	client, err := newAPIClient(ctx, cmd, cfg, queries)
	if err != nil {
		return err
	}

	ruleID, _ := cmd.Flags().GetInt64("rule-id")
	var doc any
	if ruleID != 0 {
		doc, err = client.GetRule(ctx, ruleID)
	} else {
		doc, err = client.ListRules(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch rules: %w", err)
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		f, err := os.Create(save)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", save, err)
		}
		err = writeJSON(f, doc)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", save, err)
		}
	}

	records := rules.ProjectAll(rules.NewExtractor(rules.WithLogger(slog.Default())).Extract(doc))
	slog.Info("fetched rules", "rules", len(rules.RuleNames(records)), "records", len(records))

	records, err = filterRecords(cmd, records)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	return writeRecords(os.Stdout, records, format)
}
