package rules

import (
	"strings"

	"github.com/solatis/adjrules/internal/types"
)

// Project renders one extracted trigger as a FlatRecord.
//
// Every label in types.Columns is present. The family selected by the
// adjustment type is rendered from the typed allocation (absent booleans
// as "false", absent enum fields as their defaults, other absent values
// as ""); the other family reads "N/A". Unknown types read "N/A" in both.
func Project(t types.ExtractedTrigger) types.FlatRecord {
	trig := t.Trigger
	rec := make(types.FlatRecord, len(types.Columns))

	rec[types.LabelRuleID] = t.RuleID
	rec[types.LabelRuleName] = t.RuleName
	rec[types.LabelVersionNumber] = trig.VersionNum
	rec[types.LabelAdjustmentType] = string(trig.Allocation.Type)
	rec[types.LabelEffectiveDate] = t.EffectiveDate
	if rec[types.LabelEffectiveDate] == "" {
		rec[types.LabelEffectiveDate] = trig.JobOrLocationEffectiveDate
	}
	rec[types.LabelExpirationDate] = t.ExpirationDate

	rec[types.LabelMatchAnywhere] = FormatBool(trig.MatchAnywhere)
	rec[types.LabelJobOrLocation] = refLabel(trig.JobOrLocation)
	rec[types.LabelLaborCategoryEntries] = trig.LaborCategoryEntries
	rec[types.LabelTriggerPayCodes] = joinPayCodes(trig.PayCodes)

	for _, l := range types.BonusLabels {
		rec[l] = types.NotApplicable
	}
	for _, l := range types.WageLabels {
		rec[l] = types.NotApplicable
	}

	alloc := trig.Allocation
	switch {
	case alloc.Bonus != nil:
		b := alloc.Bonus
		rec[types.LabelBonusRateAmount] = floatLabel(b.BonusRateAmount)
		rec[types.LabelBonusRateHourlyRate] = floatLabel(b.BonusRateHourlyRate)
		rec[types.LabelOncePerDay] = FormatBool(b.OncePerDay)
		rec[types.LabelTimePeriod] = orDefault(b.TimePeriod, types.DefaultTimePeriod)
		rec[types.LabelJobCodeType] = orDefault(b.JobCodeType, types.DefaultJobCodeType)
		rec[types.LabelWeekStart] = b.WeekStart
		rec[types.LabelBonusPayCode] = refLabel(b.PayCode)
		rec[types.LabelMaximumAmount] = floatLabel(b.TimeAmountMaximumAmount)
		rec[types.LabelMinimumTime] = b.TimeAmountMinimumTime

	case alloc.Wage != nil:
		w := alloc.Wage
		rec[types.LabelAmount] = floatLabel(w.Amount)
		rec[types.LabelWageType] = orDefault(w.Type, types.DefaultWageType)
		rec[types.LabelOverrideIfPrimaryJobSwitch] = FormatBool(w.OverrideIfPrimaryJobSwitch)
		rec[types.LabelUseHighestWageSwitch] = FormatBool(w.UseHighestWageSwitch)
	}
	return rec
}

// ProjectAll projects triggers in order.
func ProjectAll(triggers []types.ExtractedTrigger) []types.FlatRecord {
	out := make([]types.FlatRecord, len(triggers))
	for i, t := range triggers {
		out[i] = Project(t)
	}
	return out
}

func floatLabel(f *float64) string {
	if f == nil {
		return ""
	}
	return FormatFloat(*f)
}

// refLabel shows the qualifier, falling back to name.
func refLabel(r *types.Ref) string {
	if r == nil {
		return ""
	}
	if r.Qualifier != "" {
		return r.Qualifier
	}
	return r.Name
}

func joinPayCodes(codes []types.Ref) string {
	names := make([]string, 0, len(codes))
	for _, c := range codes {
		n := c.Name
		if n == "" {
			n = c.Qualifier
		}
		if n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
