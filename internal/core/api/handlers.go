package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solatis/adjrules/internal/core/archive"
	"github.com/solatis/adjrules/internal/rules"
	"github.com/solatis/adjrules/internal/types"
)

// ExtractResponse is returned by POST /extract.
type ExtractResponse struct {
	Shape     string             `json:"shape"`
	Count     int                `json:"count"`
	RuleNames []string           `json:"rule_names"`
	Records   []types.FlatRecord `json:"records"`
}

// UpdateRequest is the body of POST /update-payload.
type UpdateRequest struct {
	Records      []types.FlatRecord `json:"records"`
	Original     types.Document     `json:"original"`
	VersionIndex int                `json:"version_index,omitempty"`
	// All builds one payload per record instead of applying only the first.
	All bool `json:"all,omitempty"`
	// Validate checks the payload against the rule schema before returning it.
	Validate bool `json:"validate,omitempty"`
}

// ExportRequest is the body of POST /export and POST /export/archive.
type ExportRequest struct {
	Records []types.FlatRecord `json:"records"`
	RuleID  string             `json:"rule_id,omitempty"`
}

// readBody reads at most maxBodyBytes of the request body.
func (s *Service) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// decode reads a JSON request body into dest, keeping numbers as json.Number.
func (s *Service) decode(w http.ResponseWriter, r *http.Request, dest any) error {
	body, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// HandleExtract flattens a raw rule document.
// Query parameters: rule (exact rule name), search (substring), where (CEL
// expression over r), format (json or csv).
func (s *Service) HandleExtract(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := types.DecodeDocument(body)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	shape := rules.DetectShape(doc)
	records := rules.ProjectAll(s.extractor.Extract(doc))
	s.extracted.WithLabelValues(shape.String()).Add(float64(len(records)))
	names := rules.RuleNames(records)

	q := r.URL.Query()
	records = rules.Search(rules.FilterByRule(records, q.Get("rule")), q.Get("search"))
	if where := q.Get("where"); where != "" {
		f, err := rules.NewFilter(where)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		if records, err = f.Apply(records); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}

	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := archive.WriteCSV(w, records); err != nil {
			s.logger.Error("failed to write CSV", "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{
		Shape:     shape.String(),
		Count:     len(records),
		RuleNames: names,
		Records:   records,
	})
}

// HandleUpdatePayload merges edited records into the original rule.
func (s *Service) HandleUpdatePayload(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		resp any
		err  error
	)
	if req.All {
		resp, err = s.buildAll(req)
	} else {
		resp, err = s.buildOne(req)
	}
	s.built.WithLabelValues("update", outcome(err)).Inc()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) buildOne(req UpdateRequest) (types.Document, error) {
	payload, err := rules.UpdateBuilder{VersionIndex: req.VersionIndex}.Build(req.Records, req.Original)
	if err != nil {
		return nil, err
	}
	if req.Validate {
		if err := rules.ValidateDocument(rules.SchemaRule, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func (s *Service) buildAll(req UpdateRequest) ([]types.Document, error) {
	out := make([]types.Document, 0, len(req.Records))
	for i, rec := range req.Records {
		one := req
		one.Records = []types.FlatRecord{rec}
		payload, err := s.buildOne(one)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, payload)
	}
	return out, nil
}

func (s *Service) exportSet(req ExportRequest) (*rules.ExportSet, error) {
	set := rules.BuildExport(req.Records)
	if set.Len() == 0 {
		return nil, types.ErrNoRules
	}
	return set, nil
}

// HandleExport returns one export envelope when rule_id is given, otherwise
// the map of every envelope keyed by rule id.
func (s *Service) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	set, err := s.exportSet(req)
	s.built.WithLabelValues("export", outcome(err)).Inc()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.RuleID == "" {
		writeJSON(w, http.StatusOK, set.Map())
		return
	}
	env, ok := set.Rule(req.RuleID)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: %s", errRuleNotFound, req.RuleID))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// HandleExportArchive returns the export set as a zip download.
func (s *Service) HandleExportArchive(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	set, err := s.exportSet(req)
	s.built.WithLabelValues("archive", outcome(err)).Inc()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if _, err := archive.WriteZip(&buf, set); err != nil {
		s.writeError(w, r, err)
		return
	}

	name := "AdjustmentRules_" + time.Now().Format("20060102_150405") + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// HandleColumns lists the flat-record column labels in display order.
func (s *Service) HandleColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"columns": types.Columns})
}
