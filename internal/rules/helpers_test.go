package rules

import (
	"encoding/json"
	"fmt"

	"github.com/solatis/adjrules/internal/types"
)

// Fixture builders for rule documents in wire form.

func num(f float64) json.Number {
	return json.Number(FormatFloat(f))
}

func wageTrigger(versionNum string, amount float64) map[string]any {
	return map[string]any{
		"versionNum":                 versionNum,
		"matchAnywhere":              false,
		"jobOrLocation":              map[string]any{"qualifier": "Store/100"},
		"jobOrLocationEffectiveDate": "2024-01-01",
		"laborCategoryEntries":       "",
		"payCodes": []any{
			map[string]any{"qualifier": "REG", "name": "REG"},
		},
		"adjustmentAllocation": map[string]any{
			"adjustmentAllocation": map[string]any{
				"adjustmentType":             "Wage",
				"amount":                     num(amount),
				"type":                       "FlatRate",
				"overrideIfPrimaryJobSwitch": false,
				"useHighestWageSwitch":       "true",
			},
		},
	}
}

func bonusTrigger(versionNum string, rate float64) map[string]any {
	return map[string]any{
		"versionNum":    versionNum,
		"matchAnywhere": "TRUE",
		"adjustmentAllocation": map[string]any{
			"adjustmentAllocation": map[string]any{
				"adjustmentType":  "Bonus",
				"bonusRateAmount": num(rate),
				"oncePerDay":      true,
				"timePeriod":      "Day",
				"payCode":         map[string]any{"qualifier": "BONUS", "name": "BONUS"},
			},
		},
	}
}

func versionDoc(effective string, triggers ...map[string]any) map[string]any {
	list := make([]any, len(triggers))
	for i, t := range triggers {
		list[i] = t
	}
	return map[string]any{
		"effectiveDate":  effective,
		"expirationDate": "3000-01-01",
		"description":    "v " + effective,
		"triggers":       map[string]any{"adjustmentTriggerForRule": list},
	}
}

func ruleDoc(id int, name string, versions ...map[string]any) map[string]any {
	list := make([]any, len(versions))
	for i, v := range versions {
		list[i] = v
	}
	rule := map[string]any{
		"id":           json.Number(fmt.Sprint(id)),
		"ruleVersions": map[string]any{"adjustmentRuleVersion": list},
	}
	if name != "" {
		rule["name"] = name
	}
	return rule
}

func envelopeDoc(titles []string, rules ...map[string]any) map[string]any {
	responses := make([]any, len(rules))
	for i, r := range rules {
		responses[i] = map[string]any{
			"itemDataInfo":       map[string]any{"title": titles[i]},
			"responseObjectNode": r,
		}
	}
	return map[string]any{"itemsRetrieveResponses": responses}
}

// roundTripJSON encodes and re-decodes doc the way files are loaded.
func roundTripJSON(doc any) types.Document {
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	out, err := types.DecodeDocument(data)
	if err != nil {
		panic(err)
	}
	return out
}

func jsonEqual(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}
