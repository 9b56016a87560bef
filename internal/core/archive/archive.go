// Package archive writes export sets as zip bundles and flat records as CSV.
package archive

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/solatis/adjrules/internal/rules"
	"github.com/solatis/adjrules/internal/types"
)

// WriteZip writes one pretty-printed JSON document per rule in set,
// in set order, each at rules.ExportFileName. Returns the entry names.
func WriteZip(w io.Writer, set *rules.ExportSet) ([]string, error) {
	if set == nil || set.Len() == 0 {
		return nil, types.ErrNoRules
	}

	zw := zip.NewWriter(w)
	names := make([]string, 0, set.Len())
	for _, id := range set.IDs() {
		doc, _ := set.Rule(id)
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to encode rule %s: %w", id, err)
		}

		name := rules.ExportFileName(id, set.Name(id))
		f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to add %s: %w", name, err)
		}
		if _, err := f.Write(data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		names = append(names, name)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return names, nil
}

// WriteCSV writes a header of the full column set, then one row per record.
// Missing labels are written empty.
func WriteCSV(w io.Writer, records []types.FlatRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Columns); err != nil {
		return err
	}
	row := make([]string, len(types.Columns))
	for _, rec := range records {
		for i, label := range types.Columns {
			row[i] = rec[label]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads records written by WriteCSV or any CSV whose header uses
// column labels. Empty cells are omitted from the record so they read as
// absent rather than blank.
func ReadCSV(r io.Reader) ([]types.FlatRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []types.FlatRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, label := range header {
		label = strings.TrimSpace(strings.TrimPrefix(label, "\ufeff"))
		if !types.IsColumn(label) {
			return nil, fmt.Errorf("column %d %q: %w", i+1, label, types.ErrUnknownField)
		}
		header[i] = label
	}

	records := []types.FlatRecord{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(records)+2, err)
		}
		rec := make(types.FlatRecord, len(header))
		for i, v := range row {
			if v != "" {
				rec[header[i]] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
