// internal/rules/update.go
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/adjrules/internal/types"
)

/*
 * Update payload construction.
 *
 * Merges one edited FlatRecord into a deep copy of the original rule
 * document. Only the matching trigger's inner allocation object
 * (adjustmentAllocation.adjustmentAllocation) is rewritten; every other
 * trigger, version and top-level key is carried over from the copy.
 *
 * Per allocation field of the resolved type:
 *   - label absent or "N/A"      -> original value kept (string numbers and
 *                                   booleans converted); the field default
 *                                   when the edit switched the type
 *   - label present but blank     -> field default written (when it has one)
 *   - label present with a value  -> converted value written
 *
 * Fields of the other family are never scrubbed, so switching type here
 * leaves the previous type's fields in place.
 */

// requiredLabels must be present on every update record.
var requiredLabels = []string{
	types.LabelRuleID,
	types.LabelVersionNumber,
	types.LabelAdjustmentType,
}

// UpdateBuilder builds update payloads against one RuleVersion.
// The zero value targets the first version.
type UpdateBuilder struct {
	VersionIndex int
}

// BuildUpdatePayload applies records[0] to the first version of original.
func BuildUpdatePayload(records []types.FlatRecord, original types.Document) (types.Document, error) {
	return UpdateBuilder{}.Build(records, original)
}

// BuildUpdatePayloads builds one payload per record, each against a fresh
// copy of original. Stops at the first failing record.
func BuildUpdatePayloads(records []types.FlatRecord, original types.Document) ([]types.Document, error) {
	out := make([]types.Document, 0, len(records))
	for i, rec := range records {
		payload, err := BuildUpdatePayload([]types.FlatRecord{rec}, original)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, payload)
	}
	return out, nil
}

// Build applies records[0]; further records are ignored.
func (b UpdateBuilder) Build(records []types.FlatRecord, original types.Document) (types.Document, error) {
	if len(records) == 0 {
		return nil, &types.ValidationError{Field: "records", Reason: "at least one record is required"}
	}
	rec := records[0]

	ruleID, versionNum, err := validateUpdateRecord(rec)
	if err != nil {
		return nil, err
	}

	origObj, ok := original.(map[string]any)
	if !ok {
		return nil, &types.StructuralError{Path: "$", Reason: "original rule must be an object"}
	}
	doc, _ := types.CloneDocument(origObj).(map[string]any)

	versionsPath := []string{types.KeyRuleVersions, types.KeyAdjustmentRuleVersion}
	versions, ok := sequenceAt(doc, versionsPath...)
	if !ok || len(versions) == 0 {
		return nil, &types.StructuralError{Path: pathString(versionsPath...), Reason: "no rule versions"}
	}
	if b.VersionIndex < 0 || b.VersionIndex >= len(versions) {
		return nil, &types.StructuralError{
			Path:   pathString(versionsPath...),
			Reason: fmt.Sprintf("version index %d out of range (have %d)", b.VersionIndex, len(versions)),
		}
	}
	version, ok := versions[b.VersionIndex].(map[string]any)
	if !ok {
		return nil, &types.StructuralError{
			Path:   fmt.Sprintf("%s[%d]", pathString(versionsPath...), b.VersionIndex),
			Reason: "version is not an object",
		}
	}

	triggersPath := []string{types.KeyTriggers, types.KeyTriggerForRule}
	triggers, ok := sequenceAt(version, triggersPath...)
	if !ok || len(triggers) == 0 {
		return nil, &types.StructuralError{
			Path:   fmt.Sprintf("%s[%d].%s", pathString(versionsPath...), b.VersionIndex, pathString(triggersPath...)),
			Reason: "no triggers",
		}
	}

	for _, t := range triggers {
		trig, ok := t.(map[string]any)
		if !ok || AsString(trig[types.KeyVersionNum]) != versionNum {
			continue
		}
		if err := applyAllocation(trig, rec); err != nil {
			return nil, err
		}
		break
	}

	doc[types.KeyID] = json.Number(strconv.FormatInt(ruleID, 10))
	if name, ok := CleanString(rec[types.LabelRuleName]); ok {
		doc[types.KeyName] = name
	}
	return doc, nil
}

// validateUpdateRecord returns the parsed Rule ID and the trimmed Version Number.
func validateUpdateRecord(rec types.FlatRecord) (int64, string, error) {
	for _, label := range requiredLabels {
		if _, ok := rec[label]; !ok {
			return 0, "", &types.ValidationError{Field: label, Reason: "required field missing"}
		}
	}

	rawID := rec[types.LabelRuleID]
	ruleID, ok := parseRuleID(rawID)
	if !ok {
		return 0, "", &types.ValidationError{Field: types.LabelRuleID, Value: rawID, Reason: "must be an integer"}
	}

	versionNum := strings.TrimSpace(rec[types.LabelVersionNumber])
	if !isDigits(versionNum) {
		return 0, "", &types.ValidationError{
			Field:  types.LabelVersionNumber,
			Value:  rec[types.LabelVersionNumber],
			Reason: "must be a non-negative integer",
		}
	}
	return ruleID, versionNum, nil
}

// applyAllocation rewrites trig's inner allocation from rec in place.
func applyAllocation(trig map[string]any, rec types.FlatRecord) error {
	outer, ok := trig[types.KeyAllocation].(map[string]any)
	if !ok {
		outer = map[string]any{}
		trig[types.KeyAllocation] = outer
	}
	alloc, ok := outer[types.KeyAllocation].(map[string]any)
	if !ok {
		alloc = map[string]any{}
		outer[types.KeyAllocation] = alloc
	}

	previous, _ := types.ParseAdjustmentType(AsString(alloc[types.KeyAdjustmentType]))
	if typ, ok := CleanString(rec[types.LabelAdjustmentType]); ok {
		alloc[types.KeyAdjustmentType] = strings.TrimSpace(typ)
	}
	resolved, _ := types.ParseAdjustmentType(AsString(alloc[types.KeyAdjustmentType]))
	switched := resolved != previous

	for _, f := range familyFields(resolved) {
		raw, present := rec[f.Label]
		trimmed := strings.TrimSpace(raw)
		if !present || strings.EqualFold(trimmed, types.NotApplicable) {
			if switched && f.Default != nil {
				alloc[f.Key] = f.Default
			} else if v, ok := normalizeKept(f, alloc[f.Key]); ok {
				alloc[f.Key] = v
			}
			continue
		}
		if trimmed == "" {
			if f.Default != nil {
				alloc[f.Key] = f.Default
			}
			continue
		}
		v, err := convertField(f, trimmed, alloc[f.Key])
		if err != nil {
			return err
		}
		alloc[f.Key] = v
	}
	return nil
}

// normalizeKept converts a string-typed original value of a numeric or
// boolean field to its typed wire form. Unparseable strings are kept.
func normalizeKept(f allocField, existing any) (any, bool) {
	s, ok := existing.(string)
	if !ok {
		return nil, false
	}
	switch f.Kind {
	case kindFloat:
		n, err := ParseFloatStrict(s)
		if err != nil {
			return nil, false
		}
		return n, true
	case kindBool:
		return ParseBoolean(s), true
	default:
		return nil, false
	}
}

// convertField converts a non-blank record value to its wire form.
func convertField(f allocField, value string, existing any) (any, error) {
	switch f.Kind {
	case kindFloat:
		n, err := ParseFloatStrict(value)
		if err != nil {
			return nil, &types.ValidationError{Field: f.Label, Value: value, Reason: "must be numeric"}
		}
		return n, nil
	case kindBool:
		return ParseBoolean(value), nil
	case kindRef:
		ref, ok := existing.(map[string]any)
		if !ok {
			return refObject(value), nil
		}
		ref[types.KeyQualifier] = value
		ref[types.KeyName] = value
		return ref, nil
	default:
		return value, nil
	}
}
