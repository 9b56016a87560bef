// internal/rules/export.go
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/adjrules/internal/types"
)

/*
 * Export payload construction.
 *
 * Synthesizes standalone rule documents from FlatRecords alone; no original
 * document is consulted. Records are grouped by Rule ID in first-seen order
 * and every record becomes one RuleVersion holding one Trigger.
 *
 * Numeric fields use the safe parse: garbage becomes 0 rather than an
 * error, so an export of whatever is on screen always succeeds.
 */

// Export envelope constants.
const (
	UniqueKeyAdjustmentRule = "AdjustmentRule"

	keyUniqueKey = "uniqueKey"
	keyKey       = "key"
	keyEnv       = "env"
	keyURLParams = "urlparams"
)

// ExportSet holds synthesized envelopes keyed by Rule ID in insertion order.
type ExportSet struct {
	ids   []string
	rules map[string]types.Object
}

// BuildExport groups records by Rule ID and synthesizes one envelope per rule.
// Records with a blank Rule ID are skipped.
func BuildExport(records []types.FlatRecord) *ExportSet {
	set := &ExportSet{rules: make(map[string]types.Object)}
	for _, rec := range records {
		id := strings.TrimSpace(rec[types.LabelRuleID])
		if id == "" {
			continue
		}
		env, ok := set.rules[id]
		if !ok {
			env = newEnvelope(id, rec[types.LabelRuleName])
			set.rules[id] = env
			set.ids = append(set.ids, id)
		}
		appendVersion(env, exportVersion(rec))
	}
	return set
}

// Len returns the number of rules.
func (s *ExportSet) Len() int { return len(s.ids) }

// IDs returns the Rule IDs in first-seen order.
func (s *ExportSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Rule returns the envelope for id.
func (s *ExportSet) Rule(id string) (types.Object, bool) {
	env, ok := s.rules[strings.TrimSpace(id)]
	return env, ok
}

// First returns the first rule in insertion order.
func (s *ExportSet) First() (string, types.Object, bool) {
	if len(s.ids) == 0 {
		return "", nil, false
	}
	id := s.ids[0]
	return id, s.rules[id], true
}

// Name returns the rule name stored in the envelope for id.
func (s *ExportSet) Name(id string) string {
	env, ok := s.Rule(id)
	if !ok {
		return ""
	}
	name, _ := env[types.KeyName].(string)
	return name
}

// Map returns every envelope keyed by Rule ID.
func (s *ExportSet) Map() map[string]types.Document {
	out := make(map[string]types.Document, len(s.rules))
	for id, env := range s.rules {
		out[id] = env
	}
	return out
}

// BuildExportPayload returns every rule keyed by id when separateRules is
// true, possibly none, otherwise the first rule in insertion order.
// Prefer BuildExport and ExportSet.Rule when more than one rule may be present.
func BuildExportPayload(records []types.FlatRecord, separateRules bool) (any, error) {
	set := BuildExport(records)
	if separateRules {
		return set.Map(), nil
	}
	_, env, ok := set.First()
	if !ok {
		return nil, types.ErrNoRules
	}
	return env, nil
}

// ExportFileName is the archive path of one exported rule.
func ExportFileName(id, name string) string {
	r := strings.NewReplacer(" ", "_", "/", "_", "\\", "_")
	return fmt.Sprintf("AdjustmentRule_%s_%s/response.json", r.Replace(id), r.Replace(name))
}

// exportID keeps integer ids numeric on the wire.
func exportID(id string) any {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}

func newEnvelope(id, name string) types.Object {
	key := strings.ReplaceAll(name, " ", "%20")
	return types.Object{
		types.KeyID:   exportID(id),
		types.KeyName: name,
		keyUniqueKey:  UniqueKeyAdjustmentRule,
		types.KeyItemsRetrieve: []any{
			map[string]any{
				types.KeyItemDataInfo: map[string]any{
					types.KeyTitle: name,
					keyKey:         key,
					keyEnv:         nil,
					keyURLParams:   fmt.Sprintf("key=%s&name=%s", key, name),
				},
				types.KeyResponseObject: map[string]any{
					types.KeyID:   exportID(id),
					types.KeyName: name,
					types.KeyRuleVersions: map[string]any{
						types.KeyAdjustmentRuleVersion: []any{},
					},
				},
			},
		},
	}
}

func appendVersion(env types.Object, version map[string]any) {
	responses := env[types.KeyItemsRetrieve].([]any)
	node := responses[0].(map[string]any)[types.KeyResponseObject].(map[string]any)
	holder := node[types.KeyRuleVersions].(map[string]any)
	holder[types.KeyAdjustmentRuleVersion] = append(holder[types.KeyAdjustmentRuleVersion].([]any), version)
}

// cleanOr returns the cleaned value at label, or def.
func cleanOr(rec types.FlatRecord, label, def string) string {
	if v, ok := CleanString(rec[label]); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func exportVersion(rec types.FlatRecord) map[string]any {
	versionNum := cleanOr(rec, types.LabelVersionNumber, types.DefaultVersionNumber)
	effective := cleanOr(rec, types.LabelEffectiveDate, types.DefaultEffectiveDate)

	trigger := map[string]any{
		types.KeyAllocation: map[string]any{
			types.KeyAllocation: exportAllocation(rec),
		},
		keyJobOrLocation:              map[string]any{},
		keyJobOrLocationEffectiveDate: effective,
		keyLaborCategoryEntries:       cleanOr(rec, types.LabelLaborCategoryEntries, ""),
		keyMatchAnywhere:              ParseBoolean(rec[types.LabelMatchAnywhere]),
		types.KeyVersionNum:           versionNum,
	}
	if jol, ok := CleanString(rec[types.LabelJobOrLocation]); ok {
		trigger[keyJobOrLocation] = map[string]any{types.KeyQualifier: strings.TrimSpace(jol)}
	}
	if codes := splitPayCodes(rec[types.LabelTriggerPayCodes]); len(codes) > 0 {
		trigger[keyPayCodes] = codes
	}

	return map[string]any{
		types.KeyVersionID:      versionNum,
		types.KeyDescription:    "",
		types.KeyExpirationDate: types.DefaultExpirationDate,
		types.KeyEffectiveDate:  effective,
		types.KeyTriggers: map[string]any{
			types.KeyTriggerForRule: []any{trigger},
		},
	}
}

// exportAllocation builds the inner allocation. Anything but "Bonus" takes
// the Wage branch.
func exportAllocation(rec types.FlatRecord) map[string]any {
	typ, _ := types.ParseAdjustmentType(rec[types.LabelAdjustmentType])
	if typ == types.AdjustmentBonus {
		once := true
		if v, ok := rec[types.LabelOncePerDay]; ok {
			once = ParseBoolean(v)
		}
		alloc := map[string]any{
			types.KeyAdjustmentType: string(types.AdjustmentBonus),
			keyBonusRateAmount:      safeFloat(rec[types.LabelBonusRateAmount]),
			keyJobCodeType:          cleanOr(rec, types.LabelJobCodeType, types.DefaultJobCodeType),
			keyTimePeriod:           cleanOr(rec, types.LabelTimePeriod, types.DefaultTimePeriod),
			keyOncePerDay:           once,
		}
		if v, ok := CleanString(rec[types.LabelBonusRateHourlyRate]); ok {
			alloc[keyBonusRateHourlyRate] = safeFloat(v)
		}
		if v, ok := CleanString(rec[types.LabelWeekStart]); ok {
			alloc[keyWeekStart] = strings.TrimSpace(v)
		}
		if v, ok := CleanString(rec[types.LabelBonusPayCode]); ok {
			alloc[keyPayCode] = refObject(strings.TrimSpace(v))
		}
		if v, ok := CleanString(rec[types.LabelMaximumAmount]); ok {
			alloc[keyTimeAmountMaximumAmount] = safeFloat(v)
		}
		if v, ok := CleanString(rec[types.LabelMinimumTime]); ok {
			alloc[keyTimeAmountMinimumTime] = strings.TrimSpace(v)
		}
		return alloc
	}

	return map[string]any{
		types.KeyAdjustmentType:       string(types.AdjustmentWage),
		keyAmount:                     safeFloat(rec[types.LabelAmount]),
		keyWageType:                   cleanOr(rec, types.LabelWageType, types.DefaultWageType),
		keyOverrideIfPrimaryJobSwitch: ParseBoolean(rec[types.LabelOverrideIfPrimaryJobSwitch]),
		keyUseHighestWageSwitch:       ParseBoolean(rec[types.LabelUseHighestWageSwitch]),
	}
}

// safeFloat parses a cell, treating blanks and "N/A" as 0.
func safeFloat(s string) float64 {
	v, ok := CleanString(s)
	if !ok {
		return 0
	}
	return ParseFloat(v, 0)
}

// splitPayCodes parses "A, B" into reference objects; "" and "N/A" yield nil.
func splitPayCodes(s string) []any {
	if _, ok := CleanString(s); !ok {
		return nil
	}
	var out []any
	for _, pc := range strings.Split(s, ",") {
		pc = strings.TrimSpace(pc)
		if pc != "" {
			out = append(out, refObject(pc))
		}
	}
	return out
}
