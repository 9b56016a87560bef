package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/solatis/adjrules/internal/core/store"
	"github.com/solatis/adjrules/internal/core/wfm"
	"github.com/solatis/adjrules/internal/rules"
	"github.com/solatis/adjrules/internal/types"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Build update payloads from edited records and send them",
	Long: `Reads a change-set (JSON array or CSV of flat records).

With --original the payload is built locally against that rule document and
printed; nothing is sent. Otherwise every record's rule is fetched from the
API, merged and sent back with one PUT per record. The run stops at the
first failure. Every attempt is written to the push log.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	addConnectionFlag(updateCmd)
	updateCmd.Flags().String("records", "", "change-set file (.json or .csv)")
	updateCmd.Flags().String("original", "", "build against this rule document instead of the API")
	updateCmd.Flags().Int("version-index", 0, "rule version to patch when using --original")
	updateCmd.Flags().Bool("all", false, "with --original, build one payload per record")
	updateCmd.Flags().Bool("validate", false, "check payloads against the rule schema before sending")
	updateCmd.Flags().Bool("dry-run", false, "fetch and build payloads without sending them")
	updateCmd.MarkFlagRequired("records")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	path, _ := cmd.Flags().GetString("records")
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("no records to update")
	}

	if original, _ := cmd.Flags().GetString("original"); original != "" {
		return buildLocal(cmd, records, original)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, queries, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	client, err := newAPIClient(ctx, cmd, cfg, queries)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	validate, _ := cmd.Flags().GetBool("validate")
	pushLog := store.NewPushLog(queries)

	pusher := &wfm.Pusher{
		Client: client,
		DryRun: dryRun,
		OnResult: func(res wfm.PushResult) {
			if dryRun {
				if res.Err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), string(res.Payload))
				}
				return
			}
			p := store.Push{
				RuleID:     res.RuleID,
				VersionNum: res.VersionNum,
				StatusCode: res.Status,
				Payload:    string(res.Payload),
			}
			if res.Err != nil {
				p.Error = res.Err.Error()
			}
			if _, err := pushLog.Record(ctx, p); err != nil {
				slog.Warn("failed to record push", "rule_id", res.RuleID, "error", err)
			}
			slog.Info("rule updated", "rule_id", res.RuleID, "version", res.VersionNum, "status", res.Status, "ok", res.Err == nil)
		},
	}
	if validate {
		pusher.Validate = func(doc types.Document) error {
			return rules.ValidateDocument(rules.SchemaRule, doc)
		}
	}

	results, err := pusher.Push(ctx, records)
	if err != nil {
		return err
	}
	slog.Info("update finished", "sent", len(results), "dry_run", dryRun)
	return nil
}

func buildLocal(cmd *cobra.Command, records []types.FlatRecord, originalPath string) error {
	original, err := readDocument(originalPath)
	if err != nil {
		return err
	}

	versionIndex, _ := cmd.Flags().GetInt("version-index")
	all, _ := cmd.Flags().GetBool("all")
	validate, _ := cmd.Flags().GetBool("validate")
	builder := rules.UpdateBuilder{VersionIndex: versionIndex}

	batch := records[:1]
	if all {
		batch = records
	}
	payloads := make([]types.Document, 0, len(batch))
	for i, rec := range batch {
		payload, err := builder.Build([]types.FlatRecord{rec}, original)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if validate {
			if err := rules.ValidateDocument(rules.SchemaRule, payload); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		payloads = append(payloads, payload)
	}

	if all {
		return writeJSON(cmd.OutOrStdout(), payloads)
	}
	return writeJSON(cmd.OutOrStdout(), payloads[0])
}
