package cmd

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/solatis/adjrules/internal/rules"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit FILE",
	Short: "Apply cell edits to a rule document and print the change-set",
	Long: `Extracts FILE, applies each --set ROW:LABEL=VALUE edit in order and prints
the modified records. Rows are zero-based. The output feeds 'adjrules update'.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringArray("set", nil, "edit as ROW:LABEL=VALUE (repeatable)")
	editCmd.Flags().Int("undo", 0, "undo the last N edits before printing")
	editCmd.Flags().String("out", "", "write the change-set to this file instead of stdout")
	editCmd.Flags().String("format", formatJSON, "output format (json, csv, table)")
	editCmd.MarkFlagRequired("set")
}

// edit is one parsed --set argument.
type edit struct {
	row   int
	label string
	value string
}

func parseEdit(s string) (edit, error) {
	rowPart, rest, ok := strings.Cut(s, ":")
	if !ok {
		return edit{}, fmt.Errorf("edit %q: want ROW:LABEL=VALUE", s)
	}
	label, value, ok := strings.Cut(rest, "=")
	if !ok {
		return edit{}, fmt.Errorf("edit %q: want ROW:LABEL=VALUE", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowPart))
	if err != nil {
		return edit{}, fmt.Errorf("edit %q: row must be an integer", s)
	}
	return edit{row: row, label: strings.TrimSpace(label), value: value}, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	tracker := rules.NewTracker(rules.ProjectAll(rules.Extract(doc)))

	sets, _ := cmd.Flags().GetStringArray("set")
	for _, s := range sets {
		e, err := parseEdit(s)
		if err != nil {
			return err
		}
		changed, err := tracker.Edit(e.row, e.label, e.value)
		if err != nil {
			return fmt.Errorf("edit %q: %w", s, err)
		}
		if !changed {
			slog.Debug("edit left value unchanged", "row", e.row, "label", e.label)
		}
	}

	undo, _ := cmd.Flags().GetInt("undo")
	for i := 0; i < undo; i++ {
		c, ok := tracker.Undo()
		if !ok {
			break
		}
		slog.Debug("undid edit", "row", c.Row, "label", c.Label, "restored", c.Old)
	}

	modified := tracker.ModifiedRecords()
	slog.Info("edits applied", "edits", len(tracker.History()), "modified_records", len(modified))

	out, _ := cmd.Flags().GetString("out")
	w, err := createOutput(out)
	if err != nil {
		return err
	}
	defer w.Close()

	format, _ := cmd.Flags().GetString("format")
	return writeRecords(w, modified, format)
}
