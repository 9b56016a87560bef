package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/solatis/adjrules/internal/core/config"
	"github.com/solatis/adjrules/internal/core/store"
	"github.com/solatis/adjrules/internal/rules"
	"github.com/solatis/adjrules/internal/types"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Flatten a rule document into trigger records",
	Long: `Reads an API rule list, a single rule or an exported rule file and prints
one record per trigger. Records can be narrowed by rule name, free-text
search or a CEL expression over r, the record map.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addFilterFlags(extractCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("rule", "", "only records of this rule name")
	cmd.Flags().String("search", "", "case-insensitive substring match over all fields")
	cmd.Flags().String("where", "", `CEL filter, e.g. r["Adjustment Type"] == "Bonus"`)
	cmd.Flags().String("format", formatJSON, "output format (json, csv, table)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := readDocument(path)
	if err != nil {
		return err
	}

	extractor := rules.NewExtractor(rules.WithLogger(slog.Default()))
	records := rules.ProjectAll(extractor.Extract(doc))
	slog.Info("extracted records", "file", path, "shape", rules.DetectShape(doc).String(), "count", len(records))

	records, err = filterRecords(cmd, records)
	if err != nil {
		return err
	}

	rememberFile(ctx, cfg, path)

	format, _ := cmd.Flags().GetString("format")
	return writeRecords(os.Stdout, records, format)
}

// filterRecords applies --rule, --search and --where in that order.
func filterRecords(cmd *cobra.Command, records []types.FlatRecord) ([]types.FlatRecord, error) {
	rule, _ := cmd.Flags().GetString("rule")
	search, _ := cmd.Flags().GetString("search")
	where, _ := cmd.Flags().GetString("where")

	records = rules.Search(rules.FilterByRule(records, rule), search)
	if where == "" {
		return records, nil
	}
	f, err := rules.NewFilter(where)
	if err != nil {
		return nil, fmt.Errorf("invalid --where: %w", err)
	}
	return f.Apply(records)
}

// rememberFile records path in the recent files list. Failures only log:
// extraction works without a database.
func rememberFile(ctx context.Context, cfg *config.Config, path string) {
	database, queries, err := openDatabase(ctx, cfg)
	if err != nil {
		slog.Debug("recent files unavailable", "error", err)
		return
	}
	defer database.Close()

	if err := store.NewRecentFiles(queries, cfg.RecentMaxFiles).Add(ctx, path); err != nil {
		slog.Warn("failed to record recent file", "file", path, "error", err)
	}
}
