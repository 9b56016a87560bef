package rules

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/adjrules/internal/types"
)

func mustDecode(t *testing.T, s string) types.Document {
	t.Helper()
	doc, err := types.DecodeDocument([]byte(s))
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}
	return doc
}

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": "deep"},
			"n": nil,
		},
		"s": "scalar",
	}

	tests := []struct {
		name      string
		keys      []string
		wantValue any
		wantFound bool
	}{
		{"nested", []string{"a", "b", "c"}, "deep", true},
		{"no keys returns root", nil, doc, true},
		{"missing leaf", []string{"a", "b", "x"}, nil, false},
		{"missing intermediate", []string{"x", "b"}, nil, false},
		{"through scalar", []string{"s", "b"}, nil, false},
		{"explicit null", []string{"a", "n"}, nil, true},
		{"through null", []string{"a", "n", "x"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Lookup(doc, tt.keys...)
			if found != tt.wantFound {
				t.Fatalf("Lookup(%v) found = %v, want %v", tt.keys, found, tt.wantFound)
			}
			if tt.name != "no keys returns root" && got != tt.wantValue {
				t.Errorf("Lookup(%v) = %v, want %v", tt.keys, got, tt.wantValue)
			}
		})
	}
}

func TestLookupString(t *testing.T) {
	doc := mustDecode(t, `{"id": 42, "name": "R1", "none": null, "flag": true}`)

	if got, ok := LookupString(doc, "id"); !ok || got != "42" {
		t.Errorf("LookupString(id) = %q, %v, want \"42\", true", got, ok)
	}
	if got, ok := LookupString(doc, "name"); !ok || got != "R1" {
		t.Errorf("LookupString(name) = %q, %v, want \"R1\", true", got, ok)
	}
	if _, ok := LookupString(doc, "none"); ok {
		t.Errorf("LookupString(none) found null, want not found")
	}
	if got, _ := LookupString(doc, "flag"); got != "true" {
		t.Errorf("LookupString(flag) = %q, want \"true\"", got)
	}
}

func TestAsSequence(t *testing.T) {
	obj := map[string]any{"k": "v"}

	if seq, ok := asSequence([]any{1, 2}); !ok || len(seq) != 2 {
		t.Errorf("asSequence(list) = %v, %v, want 2 elements", seq, ok)
	}
	if seq, ok := asSequence(obj); !ok || len(seq) != 1 {
		t.Errorf("asSequence(object) = %v, %v, want one-element sequence", seq, ok)
	}
	for _, v := range []any{nil, "x", 1.0, true} {
		if _, ok := asSequence(v); ok {
			t.Errorf("asSequence(%#v) ok = true, want false", v)
		}
	}
}

func TestSequenceAt_WritesBackCoercion(t *testing.T) {
	version := map[string]any{"versionNum": "1"}
	doc := map[string]any{
		"ruleVersions": map[string]any{"adjustmentRuleVersion": version},
	}

	seq, ok := sequenceAt(doc, "ruleVersions", "adjustmentRuleVersion")
	if !ok || len(seq) != 1 {
		t.Fatalf("sequenceAt() = %v, %v, want one element", seq, ok)
	}

	stored, _ := Lookup(doc, "ruleVersions", "adjustmentRuleVersion")
	list, isList := stored.([]any)
	if !isList || len(list) != 1 {
		t.Fatalf("parent holds %T, want coerced []any", stored)
	}

	list[0] = "replaced"
	if seq[0] != "replaced" {
		t.Errorf("returned sequence does not alias the stored slice")
	}
}

func TestSequenceAt_Missing(t *testing.T) {
	doc := map[string]any{"ruleVersions": "oops"}
	if _, ok := sequenceAt(doc, "ruleVersions", "adjustmentRuleVersion"); ok {
		t.Errorf("sequenceAt() through scalar ok = true, want false")
	}
	if _, ok := sequenceAt(doc); ok {
		t.Errorf("sequenceAt() with no keys ok = true, want false")
	}
}

// Property-based test: lookups never panic on arbitrary nesting
func TestLookup_PropertyNeverCrashes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("lookup never crashes regardless of shape", prop.ForAll(
		func(depth int, useArray bool, hasNull bool) bool {
			var leaf any = "value"
			if hasNull {
				leaf = nil
			}
			var doc any = leaf
			for i := 0; i < depth; i++ {
				if useArray && i%2 == 0 {
					doc = []any{doc}
				} else {
					doc = map[string]any{"key": doc}
				}
			}

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Lookup() panicked: %v", r)
				}
			}()

			keys := make([]string, depth+1)
			for i := range keys {
				keys[i] = "key"
			}
			_, _ = Lookup(doc, keys...)
			_, _ = LookupString(doc, keys...)
			_, _ = LookupObject(doc, keys...)
			return true
		},
		gen.IntRange(0, 20),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
