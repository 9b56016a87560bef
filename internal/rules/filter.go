package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/solatis/adjrules/internal/types"
)

// AllRules is the rule-filter choice that keeps every record.
const AllRules = "All Rules"

// filterCostLimit bounds the work a single filter evaluation may do.
const filterCostLimit = 100000

// Search keeps records with any cell containing text, case-insensitively.
// An empty text keeps everything.
func Search(records []types.FlatRecord, text string) []types.FlatRecord {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return records
	}
	out := []types.FlatRecord{}
	for _, rec := range records {
		for _, v := range rec {
			if strings.Contains(strings.ToLower(v), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// FilterByRule keeps records whose Rule Name equals name.
// "" and AllRules keep everything.
func FilterByRule(records []types.FlatRecord, name string) []types.FlatRecord {
	if name == "" || name == AllRules {
		return records
	}
	out := []types.FlatRecord{}
	for _, rec := range records {
		if rec[types.LabelRuleName] == name {
			out = append(out, rec)
		}
	}
	return out
}

// RuleNames returns the sorted distinct non-empty rule names.
func RuleNames(records []types.FlatRecord) []string {
	seen := make(map[string]bool)
	var names []string
	for _, rec := range records {
		n := rec[types.LabelRuleName]
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Filter is a compiled CEL predicate over one record, bound as r:
//
//	r["Adjustment Type"] == "Wage" && double(r["Amount"]) > 5.0
//
// A Filter is safe for concurrent use.
type Filter struct {
	expr string
	prog cel.Program
}

// NewFilter compiles expr.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("r", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := env.Program(ast, cel.CostLimit(filterCostLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return &Filter{expr: expr, prog: prog}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match evaluates the filter against rec.
// A non-boolean result is an error.
func (f *Filter) Match(rec types.FlatRecord) (bool, error) {
	out, _, err := f.prog.Eval(map[string]any{"r": map[string]string(rec)})
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.expr, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q: result is %T, not bool", f.expr, out.Value())
	}
	return matched, nil
}

// Apply keeps the records that match, stopping at the first evaluation error.
func (f *Filter) Apply(records []types.FlatRecord) ([]types.FlatRecord, error) {
	out := []types.FlatRecord{}
	for i, rec := range records {
		ok, err := f.Match(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}
