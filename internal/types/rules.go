// internal/types/rules.go
package types

import "strings"

/*
 * Typed domain model for adjustment rules.
 *
 * Ownership is strictly hierarchical: a Rule owns its RuleVersions, a
 * RuleVersion owns its Triggers. Nothing is shared across owners, so the
 * extractor can hand out independent copies without aliasing.
 *
 * Key types:
 *   - Rule: stable integer id, display name, ordered versions
 *   - RuleVersion: effective-dated snapshot holding triggers
 *   - Trigger: smallest editable unit, one Allocation each
 *   - Allocation: Bonus-or-Wage tagged union keyed by AdjustmentType
 *   - ExtractedTrigger: one Trigger plus the owning rule/version context
 *
 * The wire wraps the allocation twice (adjustmentAllocation.adjustmentAllocation).
 * The typed model flattens that; the Document form keeps it verbatim.
 */

// AdjustmentType tags the Allocation union.
type AdjustmentType string

const (
	AdjustmentBonus AdjustmentType = "Bonus"
	AdjustmentWage  AdjustmentType = "Wage"
)

// ParseAdjustmentType returns the tag for s, or ok=false for unrecognized values.
// Matching is exact after trimming; the API is case-sensitive here.
func ParseAdjustmentType(s string) (AdjustmentType, bool) {
	switch AdjustmentType(strings.TrimSpace(s)) {
	case AdjustmentBonus:
		return AdjustmentBonus, true
	case AdjustmentWage:
		return AdjustmentWage, true
	default:
		return AdjustmentType(strings.TrimSpace(s)), false
	}
}

// Default values the API assumes when a field is blank.
const (
	DefaultTimePeriod     = "Shift"
	DefaultJobCodeType    = "Worked"
	DefaultWageType       = "FlatRate"
	DefaultVersionNumber  = "1"
	DefaultEffectiveDate  = "2024-11-03"
	DefaultExpirationDate = "3000-01-01"
	UnknownRuleName       = "Unknown Rule"
)

// Ref is a reference object (pay code, job or location).
type Ref struct {
	Qualifier string
	Name      string
}

// BonusAllocation holds the Bonus field family.
// Pointer fields distinguish "absent on the wire" from zero.
type BonusAllocation struct {
	BonusRateAmount         *float64
	BonusRateHourlyRate     *float64
	OncePerDay              bool
	TimePeriod              string
	JobCodeType             string
	WeekStart               string
	PayCode                 *Ref
	TimeAmountMaximumAmount *float64
	TimeAmountMinimumTime   string
}

// WageAllocation holds the Wage field family.
type WageAllocation struct {
	Amount                     *float64
	Type                       string
	OverrideIfPrimaryJobSwitch bool
	UseHighestWageSwitch       bool
}

// Allocation is the payout configuration of a Trigger.
// Exactly one of Bonus/Wage is non-nil for a recognized Type; both are nil otherwise.
type Allocation struct {
	Type  AdjustmentType
	Bonus *BonusAllocation
	Wage  *WageAllocation
}

// Known reports whether Type is Bonus or Wage.
func (a Allocation) Known() bool {
	return a.Type == AdjustmentBonus || a.Type == AdjustmentWage
}

// Trigger is one configurable unit of a RuleVersion.
type Trigger struct {
	VersionNum                 string
	MatchAnywhere              bool
	JobOrLocation              *Ref
	JobOrLocationEffectiveDate string
	LaborCategoryEntries       string
	PayCodes                   []Ref
	Allocation                 Allocation
}

// RuleVersion is one effective-dated configuration snapshot.
type RuleVersion struct {
	VersionID      string
	EffectiveDate  string
	ExpirationDate string
	Description    string
	Triggers       []Trigger
}

// Rule is the top-level adjustment rule.
type Rule struct {
	ID       int64
	Name     string
	Versions []RuleVersion
}

// ExtractedTrigger is a Trigger annotated with its owning rule and version.
// Raw is an independent deep copy of the wire trigger object with the
// context keys (ruleId, ruleName, effectiveDate, ...) added.
type ExtractedTrigger struct {
	Row            int
	RuleID         string
	RuleName       string
	VersionID      string
	EffectiveDate  string
	ExpirationDate string
	Description    string
	Trigger        Trigger
	Raw            Object
}
