package types

// FlatRecord is the fixed-column projection of one Trigger used for
// tabular display and editing. Keys are the Label constants below; any
// front end must use exactly these labels.
type FlatRecord map[string]string

// NotApplicable fills cells of the field family that does not apply.
const NotApplicable = "N/A"

// Identity labels.
const (
	LabelRuleID         = "Rule ID"
	LabelRuleName       = "Rule Name"
	LabelVersionNumber  = "Version Number"
	LabelAdjustmentType = "Adjustment Type"
	LabelEffectiveDate  = "Effective Date"
	LabelExpirationDate = "Expiration Date"
)

// Trigger-level labels.
const (
	LabelMatchAnywhere        = "Match Anywhere"
	LabelJobOrLocation        = "Job or Location"
	LabelLaborCategoryEntries = "Labor Category Entries"
	LabelTriggerPayCodes      = "Trigger Pay Codes"
)

// Bonus family labels.
const (
	LabelBonusRateAmount     = "Bonus Rate Amount"
	LabelBonusRateHourlyRate = "Bonus Rate Hourly Rate"
	LabelOncePerDay          = "Once Per Day"
	LabelTimePeriod          = "Time Period"
	LabelJobCodeType         = "Job Code Type"
	LabelWeekStart           = "Week Start"
	LabelBonusPayCode        = "Bonus Pay Code"
	LabelMaximumAmount       = "Maximum Amount"
	LabelMinimumTime         = "Minimum Time"
)

// Wage family labels.
const (
	LabelAmount                     = "Amount"
	LabelWageType                   = "Type"
	LabelOverrideIfPrimaryJobSwitch = "Override If Primary Job Switch"
	LabelUseHighestWageSwitch       = "Use Highest Wage Switch"
)

// IdentityLabels are carried on every modified record.
var IdentityLabels = []string{
	LabelRuleID,
	LabelRuleName,
	LabelVersionNumber,
	LabelEffectiveDate,
	LabelAdjustmentType,
}

// BonusLabels is the Bonus field family in display order.
var BonusLabels = []string{
	LabelBonusRateAmount,
	LabelBonusRateHourlyRate,
	LabelOncePerDay,
	LabelTimePeriod,
	LabelJobCodeType,
	LabelWeekStart,
	LabelBonusPayCode,
	LabelMaximumAmount,
	LabelMinimumTime,
}

// WageLabels is the Wage field family in display order.
var WageLabels = []string{
	LabelAmount,
	LabelWageType,
	LabelOverrideIfPrimaryJobSwitch,
	LabelUseHighestWageSwitch,
}

// Columns is the full fixed column set in display order.
var Columns = func() []string {
	cols := []string{
		LabelRuleID,
		LabelRuleName,
		LabelVersionNumber,
		LabelAdjustmentType,
		LabelEffectiveDate,
		LabelExpirationDate,
		LabelMatchAnywhere,
		LabelJobOrLocation,
		LabelLaborCategoryEntries,
		LabelTriggerPayCodes,
	}
	cols = append(cols, BonusLabels...)
	return append(cols, WageLabels...)
}()

var columnSet = func() map[string]bool {
	m := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		m[c] = true
	}
	return m
}()

// IsColumn reports whether label belongs to the fixed column set.
func IsColumn(label string) bool {
	return columnSet[label]
}

// IsBonusLabel reports whether label is in the Bonus family.
func IsBonusLabel(label string) bool {
	for _, l := range BonusLabels {
		if l == label {
			return true
		}
	}
	return false
}

// IsWageLabel reports whether label is in the Wage family.
func IsWageLabel(label string) bool {
	for _, l := range WageLabels {
		if l == label {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of r.
func (r FlatRecord) Clone() FlatRecord {
	out := make(FlatRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
