package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/solatis/adjrules/internal/core/archive"
	"github.com/solatis/adjrules/internal/rules"
	"github.com/solatis/adjrules/internal/types"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build standalone export documents from flat records",
	Long: `Groups records by Rule ID and writes one export envelope per rule.

Without --rule-id every rule goes into a zip archive (one response.json per
rule). With --rule-id the single envelope is printed as JSON.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("records", "", "flat records file (.json or .csv)")
	exportCmd.Flags().String("source", "", "rule document to extract records from")
	exportCmd.Flags().String("out", "", "zip archive path (default AdjustmentRules_<timestamp>.zip in export.dir)")
	exportCmd.Flags().String("rule-id", "", "print the envelope of this rule only")
	exportCmd.Flags().Bool("validate", false, "check envelopes against the export schema")
	exportCmd.MarkFlagsMutuallyExclusive("records", "source")
	exportCmd.MarkFlagsOneRequired("records", "source")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var records []types.FlatRecord
	if path, _ := cmd.Flags().GetString("records"); path != "" {
		records, err = readRecords(path)
	} else {
		path, _ := cmd.Flags().GetString("source")
		var doc types.Document
		if doc, err = readDocument(path); err == nil {
			records = rules.ProjectAll(rules.Extract(doc))
		}
	}
	if err != nil {
		return err
	}

	set := rules.BuildExport(records)
	if set.Len() == 0 {
		return types.ErrNoRules
	}

	if validate, _ := cmd.Flags().GetBool("validate"); validate {
		for _, id := range set.IDs() {
			env, _ := set.Rule(id)
			if err := rules.ValidateDocument(rules.SchemaExportEnvelope, env); err != nil {
				return fmt.Errorf("rule %s: %w", id, err)
			}
		}
	}

	if ruleID, _ := cmd.Flags().GetString("rule-id"); ruleID != "" {
		env, ok := set.Rule(ruleID)
		if !ok {
			return fmt.Errorf("rule %s not found in records", ruleID)
		}
		return writeJSON(cmd.OutOrStdout(), env)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join(cfg.ExportDir, "AdjustmentRules_"+time.Now().Format("20060102_150405")+".zip")
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}

	names, err := archive.WriteZip(f, set)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Join(fmt.Errorf("failed to write %s", out), err, os.Remove(out))
	}

	slog.Info("export written", "file", out, "rules", len(names))
	return nil
}
