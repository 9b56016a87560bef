package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/solatis/adjrules/internal/core/archive"
	"github.com/solatis/adjrules/internal/types"
)

// Output formats for record listings.
const (
	formatJSON  = "json"
	formatCSV   = "csv"
	formatTable = "table"
)

// tableColumns keeps the terminal table readable; json and csv carry every label.
var tableColumns = []string{
	types.LabelRuleID,
	types.LabelRuleName,
	types.LabelVersionNumber,
	types.LabelAdjustmentType,
	types.LabelEffectiveDate,
	types.LabelTriggerPayCodes,
	types.LabelAmount,
	types.LabelBonusRateAmount,
}

func readDocument(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := types.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// readRecords loads flat records from a .csv file or a JSON array.
func readRecords(path string) ([]types.FlatRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return archive.ReadCSV(f)
	}

	var records []types.FlatRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

func writeRecords(w io.Writer, records []types.FlatRecord, format string) error {
	switch format {
	case formatJSON, "":
		return writeJSON(w, records)
	case formatCSV:
		return archive.WriteCSV(w, records)
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(tableColumns, "\t"))
		for _, rec := range records {
			cells := make([]string, len(tableColumns))
			for i, l := range tableColumns {
				cells[i] = rec[l]
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (use json, csv or table)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// createOutput opens path for writing, or returns stdout for "" and "-".
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
