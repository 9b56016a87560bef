package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/solatis/adjrules/internal/core/logging"
	"github.com/solatis/adjrules/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRule = `{
  "id": 42,
  "name": "Night Shift",
  "ruleVersions": {"adjustmentRuleVersion": [{
    "versionNum": 1,
    "effectiveDate": "2024-01-01",
    "triggers": {"adjustmentTriggerForRule": [{
      "versionNum": 1,
      "adjustmentAllocation": {"adjustmentAllocation": {"adjustmentType": "Wage", "amount": 5.0, "type": "FlatRate"}}
    }]}
  }]}
}`

func newTestService(t *testing.T) (*Service, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s, err := NewService(logging.Discard(), 1<<20, reg)
	require.NoError(t, err)
	return s, reg
}

func post(t *testing.T, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, 1, nil)
	assert.Error(t, err)
	_, err = NewService(logging.Discard(), 0, nil)
	assert.Error(t, err)
}

func TestHandleExtract(t *testing.T) {
	s, _ := newTestService(t)

	rec := post(t, s.HandleExtract, "/api/v1/extract", sampleRule)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "single-rule", resp.Shape)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, []string{"Night Shift"}, resp.RuleNames)
	assert.Equal(t, "42", resp.Records[0][types.LabelRuleID])
	assert.Equal(t, "5", resp.Records[0][types.LabelAmount])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.extracted.WithLabelValues("single-rule")))
}

func TestHandleExtract_Filters(t *testing.T) {
	s, _ := newTestService(t)

	tests := []struct {
		name   string
		query  url.Values
		status int
		count  int
	}{
		{"rule match", url.Values{"rule": {"Night Shift"}}, http.StatusOK, 1},
		{"rule miss", url.Values{"rule": {"Weekend"}}, http.StatusOK, 0},
		{"search", url.Values{"search": {"night"}}, http.StatusOK, 1},
		{"where", url.Values{"where": {`r["Amount"] == "5"`}}, http.StatusOK, 1},
		{"bad where", url.Values{"where": {`r[`}}, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/extract?"+tt.query.Encode(), strings.NewReader(sampleRule))
			rec := httptest.NewRecorder()
			s.HandleExtract(rec, req)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var resp ExtractResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.count, resp.Count)
			var raw map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
			assert.NotNil(t, raw["records"], "records must encode as an array")
		})
	}
}

func TestHandleExtract_CSV(t *testing.T) {
	s, _ := newTestService(t)
	rec := post(t, s.HandleExtract, "/api/v1/extract?format=csv", sampleRule)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Rule ID,"))
}

func TestHandleExtract_BadBody(t *testing.T) {
	s, _ := newTestService(t)
	rec := post(t, s.HandleExtract, "/api/v1/extract", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	small, err := NewService(logging.Discard(), 8, nil)
	require.NoError(t, err)
	rec = post(t, small.HandleExtract, "/api/v1/extract", sampleRule)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func updateBody(t *testing.T, records []types.FlatRecord, extra map[string]any) string {
	t.Helper()
	var original any
	require.NoError(t, json.Unmarshal([]byte(sampleRule), &original))
	body := map[string]any{"records": records, "original": original}
	for k, v := range extra {
		body[k] = v
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return string(data)
}

func TestHandleUpdatePayload(t *testing.T) {
	s, _ := newTestService(t)
	records := []types.FlatRecord{{
		types.LabelRuleID:         "42",
		types.LabelRuleName:       "Renamed",
		types.LabelVersionNumber:  "1",
		types.LabelAdjustmentType: "Wage",
		types.LabelAmount:         "7.5",
	}}

	rec := post(t, s.HandleUpdatePayload, "/api/v1/update-payload", updateBody(t, records, map[string]any{"validate": true}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc, err := types.DecodeDocument(rec.Body.Bytes())
	require.NoError(t, err)
	obj := doc.(map[string]any)
	assert.Equal(t, "Renamed", obj["name"])
	assert.Equal(t, json.Number("42"), obj["id"])
	assert.Equal(t, 1.0, testutil.ToFloat64(s.built.WithLabelValues("update", "ok")))
}

func TestHandleUpdatePayload_All(t *testing.T) {
	s, _ := newTestService(t)
	records := []types.FlatRecord{
		{types.LabelRuleID: "42", types.LabelVersionNumber: "1", types.LabelAdjustmentType: "Wage", types.LabelAmount: "1"},
		{types.LabelRuleID: "42", types.LabelVersionNumber: "1", types.LabelAdjustmentType: "Wage", types.LabelAmount: "2"},
	}
	rec := post(t, s.HandleUpdatePayload, "/api/v1/update-payload", updateBody(t, records, map[string]any{"all": true}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payloads []any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payloads))
	assert.Len(t, payloads, 2)
}

func TestHandleUpdatePayload_Errors(t *testing.T) {
	s, _ := newTestService(t)

	t.Run("missing rule id", func(t *testing.T) {
		rec := post(t, s.HandleUpdatePayload, "/api/v1/update-payload", updateBody(t, []types.FlatRecord{{types.LabelVersionNumber: "1", types.LabelAdjustmentType: "Wage"}}, nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, types.LabelRuleID, resp.Field)
	})

	t.Run("structural", func(t *testing.T) {
		rec := post(t, s.HandleUpdatePayload, "/api/v1/update-payload",
			`{"records": [{"Rule ID": "42", "Version Number": "1", "Adjustment Type": "Wage"}], "original": {"id": 42}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Path)
	})

	t.Run("non-string cell", func(t *testing.T) {
		rec := post(t, s.HandleUpdatePayload, "/api/v1/update-payload", `{"records": [{"Rule ID": 42}], "original": {}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(s.built.WithLabelValues("update", "error")))
}

func exportBody(t *testing.T, ruleID string) string {
	t.Helper()
	data, err := json.Marshal(ExportRequest{
		Records: []types.FlatRecord{
			{types.LabelRuleID: "5", types.LabelRuleName: "Night Shift", types.LabelAdjustmentType: "Wage", types.LabelAmount: "7.5"},
			{types.LabelRuleID: "6", types.LabelRuleName: "Weekend", types.LabelAdjustmentType: "Bonus"},
		},
		RuleID: ruleID,
	})
	require.NoError(t, err)
	return string(data)
}

func TestHandleExport(t *testing.T) {
	s, _ := newTestService(t)

	rec := post(t, s.HandleExport, "/api/v1/export", exportBody(t, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var all map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)
	assert.Equal(t, "Weekend", all["6"]["name"])

	rec = post(t, s.HandleExport, "/api/v1/export", exportBody(t, "5"))
	require.Equal(t, http.StatusOK, rec.Code)
	var one map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, "Night Shift", one["name"])

	rec = post(t, s.HandleExport, "/api/v1/export", exportBody(t, "99"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(t, s.HandleExport, "/api/v1/export", `{"records": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleExportArchive(t *testing.T) {
	s, _ := newTestService(t)

	rec := post(t, s.HandleExportArchive, "/api/v1/export/archive", exportBody(t, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "AdjustmentRules_")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "AdjustmentRule_5_Night_Shift/response.json", zr.File[0].Name)
}

func TestHandleColumns(t *testing.T) {
	s, _ := newTestService(t)
	rec := httptest.NewRecorder()
	s.HandleColumns(rec, httptest.NewRequest(http.MethodGet, "/api/v1/columns", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.Columns, resp["columns"])
}
