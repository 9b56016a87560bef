package rules

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/solatis/adjrules/internal/types"
)

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name string
		doc  types.Document
		want Shape
	}{
		{"list", []any{}, ShapeRuleList},
		{"single rule", map[string]any{"id": 1, "ruleVersions": map[string]any{}}, ShapeSingleRule},
		{"envelope", map[string]any{"itemsRetrieveResponses": []any{}}, ShapeExportEnvelope},
		{"exported envelope with id", map[string]any{"id": 1, "itemsRetrieveResponses": []any{}}, ShapeExportEnvelope},
		{"id without versions", map[string]any{"id": 1}, ShapeUnknown},
		{"nil", nil, ShapeUnknown},
		{"scalar", "rules", ShapeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectShape(tt.doc); got != tt.want {
				t.Errorf("DetectShape() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtract_ShapeCoverage(t *testing.T) {
	r1 := ruleDoc(1, "Night Shift", versionDoc("2024-01-01", wageTrigger("1", 5)))
	r2 := ruleDoc(2, "Weekend", versionDoc("2024-02-01", bonusTrigger("1", 2.5)))

	list := ProjectAll(Extract([]any{r1, r2}))
	single := append(ProjectAll(Extract(r1)), ProjectAll(Extract(r2))...)
	envelope := ProjectAll(Extract(envelopeDoc([]string{"t1", "t2"}, r1, r2)))

	if len(list) != 2 {
		t.Fatalf("list extraction = %d records, want 2", len(list))
	}
	if !reflect.DeepEqual(list, single) {
		t.Errorf("single-rule extraction differs from list:\n got %v\nwant %v", single, list)
	}
	if !reflect.DeepEqual(list, envelope) {
		t.Errorf("envelope extraction differs from list:\n got %v\nwant %v", envelope, list)
	}
}

func TestExtract_RuleNameFallback(t *testing.T) {
	named := ruleDoc(1, "Own Name", versionDoc("2024-01-01", wageTrigger("1", 5)))
	unnamed := ruleDoc(2, "", versionDoc("2024-01-01", wageTrigger("1", 5)))
	untitled := ruleDoc(3, "", versionDoc("2024-01-01", wageTrigger("1", 5)))

	got := Extract(envelopeDoc([]string{"Title A", "Title B", ""}, named, unnamed, untitled))
	if len(got) != 3 {
		t.Fatalf("Extract() = %d triggers, want 3", len(got))
	}

	want := []string{"Own Name", "Title B", types.UnknownRuleName}
	for i, w := range want {
		if got[i].RuleName != w {
			t.Errorf("trigger %d RuleName = %q, want %q", i, got[i].RuleName, w)
		}
	}
}

func TestExtract_NonStringNameFallsBack(t *testing.T) {
	rule := ruleDoc(1, "", versionDoc("2024-01-01", wageTrigger("1", 5)))
	rule["name"] = 17

	got := Extract(rule)
	if len(got) != 1 || got[0].RuleName != types.UnknownRuleName {
		t.Errorf("Extract() RuleName = %v, want %q", got, types.UnknownRuleName)
	}
}

func TestExtract_SingleToSequenceCoercion(t *testing.T) {
	doc := mustDecode(t, `{
		"id": 9,
		"name": "Bare",
		"ruleVersions": {
			"adjustmentRuleVersion": {
				"versionId": "3",
				"effectiveDate": "2024-05-01",
				"triggers": {
					"adjustmentTriggerForRule": {
						"versionNum": "3",
						"adjustmentAllocation": {"adjustmentAllocation": {"adjustmentType": "Wage", "amount": 1}}
					}
				}
			}
		}
	}`)

	got := Extract(doc)
	if len(got) != 1 {
		t.Fatalf("Extract() = %d triggers, want 1", len(got))
	}
	if got[0].VersionID != "3" || got[0].Trigger.VersionNum != "3" {
		t.Errorf("VersionID = %q, VersionNum = %q, want 3/3", got[0].VersionID, got[0].Trigger.VersionNum)
	}
}

func TestExtract_AnnotationsAndOrder(t *testing.T) {
	doc := ruleDoc(42, "R1",
		versionDoc("2024-01-01", wageTrigger("1", 5), wageTrigger("2", 6)),
		versionDoc("2025-01-01", bonusTrigger("1", 3)),
	)

	got := Extract(doc)
	if len(got) != 3 {
		t.Fatalf("Extract() = %d triggers, want 3", len(got))
	}

	for i, tr := range got {
		if tr.Row != i {
			t.Errorf("trigger %d Row = %d", i, tr.Row)
		}
		if tr.RuleID != "42" || tr.Raw[AnnotRuleID] != "42" {
			t.Errorf("trigger %d rule id = %q / %v, want 42", i, tr.RuleID, tr.Raw[AnnotRuleID])
		}
		if tr.Raw[AnnotRuleName] != "R1" {
			t.Errorf("trigger %d ruleName annotation = %v", i, tr.Raw[AnnotRuleName])
		}
	}
	if got[1].Trigger.VersionNum != "2" {
		t.Errorf("second trigger VersionNum = %q, want source order", got[1].Trigger.VersionNum)
	}
	if got[2].EffectiveDate != "2025-01-01" || got[2].Raw[AnnotEffectiveDate] != "2025-01-01" {
		t.Errorf("third trigger effective date = %q / %v", got[2].EffectiveDate, got[2].Raw[AnnotEffectiveDate])
	}
	if got[2].Description != "v 2025-01-01" {
		t.Errorf("third trigger description = %q", got[2].Description)
	}
}

func TestExtract_IndependentCopies(t *testing.T) {
	doc := ruleDoc(1, "R", versionDoc("2024-01-01", wageTrigger("1", 5)))
	before := roundTripJSON(doc)

	got := Extract(doc)
	alloc := got[0].Raw["adjustmentAllocation"].(map[string]any)["adjustmentAllocation"].(map[string]any)
	alloc["amount"] = 999.0

	if !jsonEqual(doc, before) {
		t.Errorf("mutating extracted trigger changed the source document")
	}
	trig := doc["ruleVersions"].(map[string]any)["adjustmentRuleVersion"].([]any)[0].(map[string]any)["triggers"].(map[string]any)["adjustmentTriggerForRule"].([]any)[0].(map[string]any)
	if _, ok := trig[AnnotRuleID]; ok {
		t.Errorf("annotation leaked into the source trigger")
	}
}

func TestExtract_TypedDecode(t *testing.T) {
	got := Extract(ruleDoc(1, "R", versionDoc("2024-01-01", wageTrigger("1", 5), bonusTrigger("2", 2.5))))

	wage := got[0].Trigger
	if wage.Allocation.Type != types.AdjustmentWage || wage.Allocation.Wage == nil {
		t.Fatalf("first trigger allocation = %+v, want Wage", wage.Allocation)
	}
	if *wage.Allocation.Wage.Amount != 5 || !wage.Allocation.Wage.UseHighestWageSwitch {
		t.Errorf("wage decode = %+v", wage.Allocation.Wage)
	}
	if wage.JobOrLocation == nil || wage.JobOrLocation.Qualifier != "Store/100" {
		t.Errorf("jobOrLocation = %+v", wage.JobOrLocation)
	}
	if len(wage.PayCodes) != 1 || wage.PayCodes[0].Name != "REG" {
		t.Errorf("payCodes = %+v", wage.PayCodes)
	}

	bonus := got[1].Trigger
	if bonus.Allocation.Bonus == nil || *bonus.Allocation.Bonus.BonusRateAmount != 2.5 {
		t.Fatalf("bonus decode = %+v", bonus.Allocation)
	}
	if !bonus.MatchAnywhere {
		t.Errorf("MatchAnywhere from \"TRUE\" = false, want true")
	}
	if bonus.Allocation.Wage != nil {
		t.Errorf("bonus trigger carries a Wage family")
	}
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{"null", `null`, 0},
		{"empty object", `{}`, 0},
		{"empty list", `[]`, 0},
		{"scalar list", `[1, "x", null]`, 0},
		{"rule without versions", `[{"id": 1, "name": "a"}]`, 0},
		{"versions wrong type", `[{"id": 1, "ruleVersions": "nope"}]`, 0},
		{"version without triggers", `[{"id": 1, "ruleVersions": {"adjustmentRuleVersion": [{"effectiveDate": "x"}]}}]`, 0},
		{"non-object trigger skipped", `[{"id": 1, "ruleVersions": {"adjustmentRuleVersion": [{"triggers": {"adjustmentTriggerForRule": [5, {"versionNum": "1"}]}}]}}]`, 1},
		{"bad rule does not hide good rule", `[{"id": 1}, {"id": 2, "ruleVersions": {"adjustmentRuleVersion": [{"triggers": {"adjustmentTriggerForRule": [{"versionNum": "1"}]}}]}}]`, 1},
		{"envelope entry without node", `{"itemsRetrieveResponses": [{"itemDataInfo": {"title": "x"}}]}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(mustDecode(t, tt.doc))
			if got == nil {
				t.Fatalf("Extract() = nil, want non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("Extract() = %d triggers, want %d", len(got), tt.want)
			}
		})
	}
}

func TestExtractBytes(t *testing.T) {
	if _, err := ExtractBytes([]byte(`{"id": `)); err == nil {
		t.Errorf("ExtractBytes(truncated) error = nil, want decode error")
	}

	got, err := ExtractBytes([]byte(`[{"id": 7, "name": "x", "ruleVersions": {"adjustmentRuleVersion": [{"triggers": {"adjustmentTriggerForRule": [{"versionNum": "1"}]}}]}}]`))
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}
	if len(got) != 1 || got[0].RuleID != "7" {
		t.Errorf("ExtractBytes() = %+v", got)
	}
}

func TestExtractor_LogsSkippedBranches(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewExtractor(WithLogger(logger)).Extract(mustDecode(t, `[{"id": 1}]`))

	if !strings.Contains(buf.String(), "rule has no versions") {
		t.Errorf("log output = %q, want skipped-rule line", buf.String())
	}
}

func TestExtractor_Rules(t *testing.T) {
	doc := []any{
		ruleDoc(42, "R1", versionDoc("2024-01-01", wageTrigger("1", 5)), versionDoc("2025-01-01")),
	}

	rules := NewExtractor().Rules(doc)
	if len(rules) != 1 {
		t.Fatalf("Rules() = %d, want 1", len(rules))
	}
	if rules[0].ID != 42 || rules[0].Name != "R1" {
		t.Errorf("rule = %d/%q, want 42/R1", rules[0].ID, rules[0].Name)
	}
	if len(rules[0].Versions) != 2 || len(rules[0].Versions[0].Triggers) != 1 {
		t.Errorf("versions = %+v", rules[0].Versions)
	}
}
