package rules

import "github.com/solatis/adjrules/internal/types"

// Trigger wire keys.
const (
	keyMatchAnywhere              = "matchAnywhere"
	keyJobOrLocation              = "jobOrLocation"
	keyJobOrLocationEffectiveDate = "jobOrLocationEffectiveDate"
	keyLaborCategoryEntries       = "laborCategoryEntries"
	keyPayCodes                   = "payCodes"
)

// Allocation wire keys.
const (
	keyBonusRateAmount            = "bonusRateAmount"
	keyBonusRateHourlyRate        = "bonusRateHourlyRate"
	keyOncePerDay                 = "oncePerDay"
	keyTimePeriod                 = "timePeriod"
	keyJobCodeType                = "jobCodeType"
	keyWeekStart                  = "weekStart"
	keyPayCode                    = "payCode"
	keyTimeAmountMaximumAmount    = "timeAmountMaximumAmount"
	keyTimeAmountMinimumTime      = "timeAmountMinimumTime"
	keyAmount                     = "amount"
	keyWageType                   = "type"
	keyOverrideIfPrimaryJobSwitch = "overrideIfPrimaryJobSwitch"
	keyUseHighestWageSwitch       = "useHighestWageSwitch"
)

// fieldKind selects the wire conversion of an allocation field.
type fieldKind int

const (
	kindString fieldKind = iota
	kindFloat
	kindBool
	kindRef
)

// allocField maps one FlatRecord label to its allocation wire key.
// Default is written when the record carries the label with a blank value;
// a nil Default means a blank value leaves the original untouched.
type allocField struct {
	Label   string
	Key     string
	Kind    fieldKind
	Default any
}

var bonusFields = []allocField{
	{types.LabelBonusRateAmount, keyBonusRateAmount, kindFloat, 0.0},
	{types.LabelBonusRateHourlyRate, keyBonusRateHourlyRate, kindFloat, nil},
	{types.LabelOncePerDay, keyOncePerDay, kindBool, false},
	{types.LabelTimePeriod, keyTimePeriod, kindString, types.DefaultTimePeriod},
	{types.LabelJobCodeType, keyJobCodeType, kindString, types.DefaultJobCodeType},
	{types.LabelWeekStart, keyWeekStart, kindString, nil},
	{types.LabelBonusPayCode, keyPayCode, kindRef, nil},
	{types.LabelMaximumAmount, keyTimeAmountMaximumAmount, kindFloat, nil},
	{types.LabelMinimumTime, keyTimeAmountMinimumTime, kindString, nil},
}

var wageFields = []allocField{
	{types.LabelAmount, keyAmount, kindFloat, 0.0},
	{types.LabelWageType, keyWageType, kindString, types.DefaultWageType},
	{types.LabelOverrideIfPrimaryJobSwitch, keyOverrideIfPrimaryJobSwitch, kindBool, false},
	{types.LabelUseHighestWageSwitch, keyUseHighestWageSwitch, kindBool, false},
}

// familyFields returns the field table of typ, or nil for unknown types.
func familyFields(typ types.AdjustmentType) []allocField {
	switch typ {
	case types.AdjustmentBonus:
		return bonusFields
	case types.AdjustmentWage:
		return wageFields
	default:
		return nil
	}
}

// refObject renders a reference the way the API writes it for pay codes.
func refObject(name string) map[string]any {
	return map[string]any{types.KeyQualifier: name, types.KeyName: name}
}
