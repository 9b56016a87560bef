// internal/rules/fieldpath.go
package rules

import (
	"strings"

	"github.com/solatis/adjrules/internal/types"
)

/*
 * Path resolution over decoded rule documents.
 *
 * Documents are map[string]any / []any trees of unknown provenance. These
 * helpers never panic on a wrong shape: a missing key, a scalar where an
 * object was expected, or a null intermediate all resolve to "not found".
 *
 * Sequence coercion: the API wraps versions and triggers in arrays, but
 * hand-authored files sometimes carry a bare object. asSequence treats a
 * bare object as a one-element sequence. setSequence writes the coerced
 * form back so later index-based edits address the same slot.
 */

// Lookup follows keys through nested objects.
// Returns found=false when any segment is missing or not an object.
func Lookup(doc types.Document, keys ...string) (any, bool) {
	current := doc
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// LookupObject is Lookup requiring an object at the end of the path.
func LookupObject(doc types.Document, keys ...string) (map[string]any, bool) {
	v, ok := Lookup(doc, keys...)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// LookupString is Lookup rendering the resolved scalar as text.
// Missing paths and explicit nulls both return found=false.
func LookupString(doc types.Document, keys ...string) (string, bool) {
	v, ok := Lookup(doc, keys...)
	if !ok || v == nil {
		return "", false
	}
	return AsString(v), true
}

// asSequence returns v as a sequence of elements.
// []any passes through, a bare object becomes a one-element sequence,
// anything else is not a sequence.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case map[string]any:
		return []any{s}, true
	default:
		return nil, false
	}
}

// sequenceAt resolves keys on obj and coerces the result with asSequence,
// writing the coerced slice back into the parent so the caller may mutate
// elements by index.
func sequenceAt(obj map[string]any, keys ...string) ([]any, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	parent, ok := LookupObject(obj, keys[:len(keys)-1]...)
	if !ok {
		return nil, false
	}
	last := keys[len(keys)-1]
	seq, ok := asSequence(parent[last])
	if !ok {
		return nil, false
	}
	parent[last] = seq
	return seq, true
}

// pathString renders keys for error messages ("ruleVersions.adjustmentRuleVersion[0]").
func pathString(keys ...string) string {
	return strings.Join(keys, ".")
}
