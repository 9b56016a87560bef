// internal/rules/extract.go
package rules

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/solatis/adjrules/internal/types"
)

/*
 * Trigger extraction.
 *
 * Walks a document of unknown shape and emits one ExtractedTrigger per
 * trigger, in source order (rules, then versions, then triggers).
 *
 * Workflow:
 *   1. DetectShape picks one of the recognized root layouts
 *   2. ruleSources maps that layout to rule-shaped objects
 *   3. one shared walk resolves the rule name and visits versions/triggers
 *   4. each trigger is deep-copied, annotated, and decoded to types.Trigger
 *
 * Malformed branches contribute zero triggers and a debug log line.
 * Extraction never fails; ExtractBytes only surfaces JSON syntax errors.
 */

// Annotation keys added to each extracted trigger's Raw copy.
const (
	AnnotRuleID         = "ruleId"
	AnnotRuleName       = "ruleName"
	AnnotEffectiveDate  = "effectiveDate"
	AnnotExpirationDate = "expirationDate"
	AnnotDescription    = "description"
	AnnotVersionID      = "versionId"
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger routes skipped-branch diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Extractor turns rule documents into ExtractedTriggers.
// The zero value is not usable; construct with NewExtractor.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns an Extractor that discards diagnostics unless
// WithLogger is given.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = NewExtractor()

// Extract is NewExtractor().Extract.
func Extract(doc types.Document) []types.ExtractedTrigger {
	return defaultExtractor.Extract(doc)
}

// ExtractBytes decodes data and extracts its triggers.
func ExtractBytes(data []byte) ([]types.ExtractedTrigger, error) {
	doc, err := types.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rule document: %w", err)
	}
	return Extract(doc), nil
}

// Extract emits the document's triggers in source order.
// Returns an empty, non-nil slice for empty, null or unrecognized input.
func (e *Extractor) Extract(doc types.Document) []types.ExtractedTrigger {
	out := make([]types.ExtractedTrigger, 0)
	shape := DetectShape(doc)
	if shape == ShapeUnknown {
		if doc != nil {
			e.logger.Debug("unrecognized document shape", "type", fmt.Sprintf("%T", doc))
		}
		return out
	}

	for i, src := range ruleSources(doc, shape) {
		out = e.walkRule(out, i, src)
	}
	for row := range out {
		out[row].Row = row
	}
	return out
}

// Rules decodes every rule in doc into the typed model.
func (e *Extractor) Rules(doc types.Document) []types.Rule {
	shape := DetectShape(doc)
	srcs := ruleSources(doc, shape)
	out := make([]types.Rule, 0, len(srcs))
	for _, src := range srcs {
		rule := types.Rule{Name: resolveRuleName(src)}
		rule.ID, _ = parseRuleID(src.obj[types.KeyID])
		for _, v := range versionsOf(src.obj) {
			version, ok := v.(map[string]any)
			if !ok {
				continue
			}
			rv := decodeVersion(version)
			for _, t := range triggersOf(version) {
				if trig, ok := t.(map[string]any); ok {
					rv.Triggers = append(rv.Triggers, DecodeTrigger(trig))
				}
			}
			rule.Versions = append(rule.Versions, rv)
		}
		out = append(out, rule)
	}
	return out
}

func (e *Extractor) walkRule(out []types.ExtractedTrigger, index int, src ruleSource) []types.ExtractedTrigger {
	ruleID := AsString(src.obj[types.KeyID])
	ruleName := resolveRuleName(src)

	versions := versionsOf(src.obj)
	if versions == nil {
		e.logger.Debug("rule has no versions", "rule_index", index, "rule_id", ruleID)
		return out
	}

	for vi, v := range versions {
		version, ok := v.(map[string]any)
		if !ok {
			e.logger.Debug("skipping non-object version", "rule_id", ruleID, "version_index", vi)
			continue
		}
		rv := decodeVersion(version)

		triggers := triggersOf(version)
		if triggers == nil {
			e.logger.Debug("version has no triggers", "rule_id", ruleID, "version_index", vi)
			continue
		}

		for ti, t := range triggers {
			trig, ok := t.(map[string]any)
			if !ok {
				e.logger.Debug("skipping non-object trigger",
					"rule_id", ruleID, "version_index", vi, "trigger_index", ti)
				continue
			}

			raw, _ := types.CloneDocument(trig).(map[string]any)
			raw[AnnotRuleID] = ruleID
			raw[AnnotRuleName] = ruleName
			annotate(raw, version, types.KeyEffectiveDate, AnnotEffectiveDate)
			annotate(raw, version, types.KeyExpirationDate, AnnotExpirationDate)
			annotate(raw, version, types.KeyDescription, AnnotDescription)
			if rv.VersionID != "" {
				raw[AnnotVersionID] = rv.VersionID
			}

			out = append(out, types.ExtractedTrigger{
				RuleID:         ruleID,
				RuleName:       ruleName,
				VersionID:      rv.VersionID,
				EffectiveDate:  rv.EffectiveDate,
				ExpirationDate: rv.ExpirationDate,
				Description:    rv.Description,
				Trigger:        DecodeTrigger(trig),
				Raw:            raw,
			})
		}
	}
	return out
}

// annotate copies version[key] onto raw[as] when present.
func annotate(raw, version map[string]any, key, as string) {
	if v, ok := version[key]; ok {
		raw[as] = types.CloneDocument(v)
	}
}

// resolveRuleName prefers the rule's own name, then the envelope title.
func resolveRuleName(src ruleSource) string {
	if name, ok := src.obj[types.KeyName].(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	if strings.TrimSpace(src.title) != "" {
		return src.title
	}
	return types.UnknownRuleName
}

func versionsOf(rule map[string]any) []any {
	seq, ok := asSequence(lookupOrNil(rule, types.KeyRuleVersions, types.KeyAdjustmentRuleVersion))
	if !ok {
		return nil
	}
	return seq
}

func triggersOf(version map[string]any) []any {
	seq, ok := asSequence(lookupOrNil(version, types.KeyTriggers, types.KeyTriggerForRule))
	if !ok {
		return nil
	}
	return seq
}

func lookupOrNil(doc types.Document, keys ...string) any {
	v, _ := Lookup(doc, keys...)
	return v
}

func decodeVersion(version map[string]any) types.RuleVersion {
	rv := types.RuleVersion{}
	rv.VersionID, _ = LookupString(version, types.KeyVersionID)
	if rv.VersionID == "" {
		rv.VersionID, _ = LookupString(version, types.KeyVersionNum)
	}
	rv.EffectiveDate, _ = LookupString(version, types.KeyEffectiveDate)
	rv.ExpirationDate, _ = LookupString(version, types.KeyExpirationDate)
	rv.Description, _ = LookupString(version, types.KeyDescription)
	return rv
}

// parseRuleID converts a wire id (number or numeric string) to int64.
func parseRuleID(v any) (int64, bool) {
	s := strings.TrimSpace(AsString(v))
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// DecodeTrigger converts a wire trigger object into the typed model.
// Stringly-typed numbers and booleans are converted here and nowhere else.
func DecodeTrigger(obj map[string]any) types.Trigger {
	t := types.Trigger{
		VersionNum:    AsString(obj[types.KeyVersionNum]),
		MatchAnywhere: ParseBoolean(obj[keyMatchAnywhere]),
		JobOrLocation: decodeRef(obj[keyJobOrLocation]),
	}
	t.JobOrLocationEffectiveDate, _ = LookupString(obj, keyJobOrLocationEffectiveDate)
	t.LaborCategoryEntries, _ = LookupString(obj, keyLaborCategoryEntries)

	if codes, ok := asSequence(obj[keyPayCodes]); ok {
		for _, c := range codes {
			if ref := decodeRef(c); ref != nil {
				t.PayCodes = append(t.PayCodes, *ref)
			}
		}
	}

	if alloc, ok := LookupObject(obj, types.KeyAllocation, types.KeyAllocation); ok {
		t.Allocation = DecodeAllocation(alloc)
	}
	return t
}

// DecodeAllocation converts the inner adjustmentAllocation object.
func DecodeAllocation(obj map[string]any) types.Allocation {
	typ, _ := types.ParseAdjustmentType(AsString(obj[types.KeyAdjustmentType]))
	a := types.Allocation{Type: typ}

	switch typ {
	case types.AdjustmentBonus:
		b := &types.BonusAllocation{
			BonusRateAmount:         optionalFloat(obj, keyBonusRateAmount),
			BonusRateHourlyRate:     optionalFloat(obj, keyBonusRateHourlyRate),
			OncePerDay:              ParseBoolean(obj[keyOncePerDay]),
			PayCode:                 decodeRef(obj[keyPayCode]),
			TimeAmountMaximumAmount: optionalFloat(obj, keyTimeAmountMaximumAmount),
		}
		b.TimePeriod, _ = LookupString(obj, keyTimePeriod)
		b.JobCodeType, _ = LookupString(obj, keyJobCodeType)
		b.WeekStart, _ = LookupString(obj, keyWeekStart)
		b.TimeAmountMinimumTime, _ = LookupString(obj, keyTimeAmountMinimumTime)
		a.Bonus = b

	case types.AdjustmentWage:
		w := &types.WageAllocation{
			Amount:                     optionalFloat(obj, keyAmount),
			OverrideIfPrimaryJobSwitch: ParseBoolean(obj[keyOverrideIfPrimaryJobSwitch]),
			UseHighestWageSwitch:       ParseBoolean(obj[keyUseHighestWageSwitch]),
		}
		w.Type, _ = LookupString(obj, keyWageType)
		a.Wage = w
	}
	return a
}

// optionalFloat returns nil when obj[key] is absent, null or not numeric.
func optionalFloat(obj map[string]any, key string) *float64 {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	f, err := ParseFloatStrict(v)
	if err != nil {
		return nil
	}
	return &f
}

// decodeRef reads a {qualifier, name} reference. Empty objects yield nil.
func decodeRef(v any) *types.Ref {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	ref := &types.Ref{}
	ref.Qualifier, _ = LookupString(obj, types.KeyQualifier)
	ref.Name, _ = LookupString(obj, types.KeyName)
	if ref.Qualifier == "" && ref.Name == "" {
		return nil
	}
	return ref
}
