package rules

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/solatis/adjrules/internal/types"
)

func exportRecords() []types.FlatRecord {
	return []types.FlatRecord{
		{
			types.LabelRuleID:          "5",
			types.LabelRuleName:        "Night Shift",
			types.LabelVersionNumber:   "1",
			types.LabelAdjustmentType:  "Wage",
			types.LabelEffectiveDate:   "2024-01-01",
			types.LabelAmount:          "7.5",
			types.LabelWageType:        "FlatRate",
			types.LabelTriggerPayCodes: "REG, OT",
		},
		{
			types.LabelRuleID:          "5",
			types.LabelRuleName:        "Night Shift",
			types.LabelVersionNumber:   "2",
			types.LabelAdjustmentType:  "Bonus",
			types.LabelBonusRateAmount: "2",
			types.LabelBonusPayCode:    "BONUS",
			types.LabelJobOrLocation:   "Store/1",
		},
		{
			types.LabelRuleID:         "6",
			types.LabelRuleName:       "Weekend",
			types.LabelVersionNumber:  "1",
			types.LabelAdjustmentType: "Wage",
		},
	}
}

func exportedVersions(t *testing.T, env types.Object) []any {
	t.Helper()
	responses := env[types.KeyItemsRetrieve].([]any)
	node := responses[0].(map[string]any)[types.KeyResponseObject]
	v, ok := Lookup(node, types.KeyRuleVersions, types.KeyAdjustmentRuleVersion)
	if !ok {
		t.Fatalf("envelope has no versions")
	}
	return v.([]any)
}

func TestBuildExport_Grouping(t *testing.T) {
	set := BuildExport(exportRecords())

	if !reflect.DeepEqual(set.IDs(), []string{"5", "6"}) {
		t.Fatalf("IDs() = %v, want [5 6]", set.IDs())
	}

	five, ok := set.Rule("5")
	if !ok {
		t.Fatalf("Rule(5) missing")
	}
	if n := len(exportedVersions(t, five)); n != 2 {
		t.Errorf("rule 5 versions = %d, want 2", n)
	}
	six, _ := set.Rule("6")
	if n := len(exportedVersions(t, six)); n != 1 {
		t.Errorf("rule 6 versions = %d, want 1", n)
	}
}

func TestBuildExport_Envelope(t *testing.T) {
	set := BuildExport(exportRecords())
	env, _ := set.Rule("5")

	if env["id"] != json.Number("5") || env["name"] != "Night Shift" || env["uniqueKey"] != "AdjustmentRule" {
		t.Errorf("envelope header = %v/%v/%v", env["id"], env["name"], env["uniqueKey"])
	}

	info, _ := LookupObject(env[types.KeyItemsRetrieve].([]any)[0], types.KeyItemDataInfo)
	if info["key"] != "Night%20Shift" {
		t.Errorf("key = %v, want Night%%20Shift", info["key"])
	}
	if info["urlparams"] != "key=Night%20Shift&name=Night Shift" {
		t.Errorf("urlparams = %v", info["urlparams"])
	}
	if v, present := info["env"]; !present || v != nil {
		t.Errorf("env = %v (present %v), want explicit null", v, present)
	}

	versions := exportedVersions(t, env)
	v0 := versions[0].(map[string]any)
	if v0["versionId"] != "1" || v0["expirationDate"] != types.DefaultExpirationDate || v0["description"] != "" {
		t.Errorf("version 0 = %v", v0)
	}

	trig, _ := Lookup(v0, types.KeyTriggers, types.KeyTriggerForRule)
	t0 := trig.([]any)[0].(map[string]any)
	codes, _ := t0["payCodes"].([]any)
	if len(codes) != 2 || codes[1].(map[string]any)["name"] != "OT" {
		t.Errorf("payCodes = %v", t0["payCodes"])
	}
	alloc, _ := LookupObject(t0, types.KeyAllocation, types.KeyAllocation)
	if alloc["amount"] != 7.5 || alloc["type"] != "FlatRate" {
		t.Errorf("wage allocation = %v", alloc)
	}

	v1 := versions[1].(map[string]any)
	trig, _ = Lookup(v1, types.KeyTriggers, types.KeyTriggerForRule)
	t1 := trig.([]any)[0].(map[string]any)
	bonus, _ := LookupObject(t1, types.KeyAllocation, types.KeyAllocation)
	if bonus["adjustmentType"] != "Bonus" || bonus["bonusRateAmount"] != 2.0 || bonus["oncePerDay"] != true {
		t.Errorf("bonus allocation = %v", bonus)
	}
	if bonus["timePeriod"] != types.DefaultTimePeriod || bonus["jobCodeType"] != types.DefaultJobCodeType {
		t.Errorf("bonus defaults = %v", bonus)
	}
	if jol, _ := t1["jobOrLocation"].(map[string]any); jol["qualifier"] != "Store/1" {
		t.Errorf("jobOrLocation = %v", t1["jobOrLocation"])
	}
	if v1["effectiveDate"] != types.DefaultEffectiveDate {
		t.Errorf("default effective date = %v", v1["effectiveDate"])
	}
}

func TestBuildExport_SafeParse(t *testing.T) {
	set := BuildExport([]types.FlatRecord{{
		types.LabelRuleID:          "1",
		types.LabelAdjustmentType:  "Unknown",
		types.LabelAmount:          "lots",
		types.LabelTriggerPayCodes: "N/A",
	}})

	env, _ := set.Rule("1")
	trig, _ := Lookup(exportedVersions(t, env)[0], types.KeyTriggers, types.KeyTriggerForRule)
	t0 := trig.([]any)[0].(map[string]any)
	alloc, _ := LookupObject(t0, types.KeyAllocation, types.KeyAllocation)
	if alloc["adjustmentType"] != "Wage" || alloc["amount"] != 0.0 {
		t.Errorf("non-Bonus allocation = %v, want Wage with amount 0", alloc)
	}
	if _, ok := t0["payCodes"]; ok {
		t.Errorf("N/A pay codes exported")
	}
}

func TestBuildExport_SkipsMissingRuleID(t *testing.T) {
	set := BuildExport([]types.FlatRecord{{types.LabelRuleName: "orphan"}, {types.LabelRuleID: " "}})
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}
	all, err := BuildExportPayload(nil, true)
	if err != nil {
		t.Fatalf("BuildExportPayload(nil, true) error = %v", err)
	}
	if m, ok := all.(map[string]types.Document); !ok || m == nil || len(m) != 0 {
		t.Errorf("BuildExportPayload(nil, true) = %#v, want empty map", all)
	}
	if _, err := BuildExportPayload(nil, false); !errors.Is(err, types.ErrNoRules) {
		t.Errorf("BuildExportPayload(nil, false) error = %v, want ErrNoRules", err)
	}
}

func TestBuildExportPayload_Legacy(t *testing.T) {
	all, err := BuildExportPayload(exportRecords(), true)
	if err != nil {
		t.Fatalf("BuildExportPayload(true) error = %v", err)
	}
	if m, ok := all.(map[string]types.Document); !ok || len(m) != 2 {
		t.Errorf("separate payload = %T with %v", all, all)
	}

	first, err := BuildExportPayload(exportRecords(), false)
	if err != nil {
		t.Fatalf("BuildExportPayload(false) error = %v", err)
	}
	if first.(types.Object)["name"] != "Night Shift" {
		t.Errorf("first rule = %v, want insertion-order first", first.(types.Object)["name"])
	}
}

func TestExportFileName(t *testing.T) {
	if got := ExportFileName("5", "Night Shift"); got != "AdjustmentRule_5_Night_Shift/response.json" {
		t.Errorf("ExportFileName() = %q", got)
	}
	if got := ExportFileName("5", "a/b"); got != "AdjustmentRule_5_a_b/response.json" {
		t.Errorf("ExportFileName() with slash = %q", got)
	}
}

func TestExport_ExtractRoundTrip(t *testing.T) {
	records := ProjectAll(Extract(ruleDoc(42, "R1",
		versionDoc("2024-01-01", wageTrigger("1", 5)),
		versionDoc("2024-06-01", bonusTrigger("2", 2.5)),
	)))

	set := BuildExport(records)
	env, _ := set.Rule("42")
	back := ProjectAll(Extract(roundTripJSON(env)))

	if len(back) != len(records) {
		t.Fatalf("round trip = %d records, want %d", len(back), len(records))
	}

	compare := []string{
		types.LabelRuleID, types.LabelRuleName, types.LabelVersionNumber,
		types.LabelAdjustmentType, types.LabelEffectiveDate, types.LabelMatchAnywhere,
		types.LabelJobOrLocation, types.LabelTriggerPayCodes, types.LabelAmount,
		types.LabelWageType, types.LabelUseHighestWageSwitch, types.LabelBonusRateAmount,
		types.LabelOncePerDay, types.LabelTimePeriod, types.LabelBonusPayCode,
	}
	for i := range records {
		for _, l := range compare {
			if back[i][l] != records[i][l] {
				t.Errorf("record %d %s = %q after round trip, want %q", i, l, back[i][l], records[i][l])
			}
		}
	}
}
