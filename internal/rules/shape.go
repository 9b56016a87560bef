package rules

import "github.com/solatis/adjrules/internal/types"

// Shape identifies which of the recognized root layouts a document uses.
type Shape int

const (
	// ShapeUnknown contributes no rules.
	ShapeUnknown Shape = iota
	// ShapeRuleList is a JSON array of rule objects ("list all rules" response).
	ShapeRuleList
	// ShapeSingleRule is one rule object with id and ruleVersions at the top level.
	ShapeSingleRule
	// ShapeExportEnvelope wraps rules in itemsRetrieveResponses[].responseObjectNode.
	ShapeExportEnvelope
)

func (s Shape) String() string {
	switch s {
	case ShapeRuleList:
		return "rule-list"
	case ShapeSingleRule:
		return "single-rule"
	case ShapeExportEnvelope:
		return "export-envelope"
	default:
		return "unknown"
	}
}

// DetectShape inspects the root of doc once.
// A single rule is checked before the envelope: exported envelopes carry
// a top-level id but never a top-level ruleVersions.
func DetectShape(doc types.Document) Shape {
	switch v := doc.(type) {
	case []any:
		return ShapeRuleList
	case map[string]any:
		_, hasID := v[types.KeyID]
		_, hasVersions := v[types.KeyRuleVersions]
		if hasID && hasVersions {
			return ShapeSingleRule
		}
		if _, ok := v[types.KeyItemsRetrieve]; ok {
			return ShapeExportEnvelope
		}
		return ShapeUnknown
	default:
		return ShapeUnknown
	}
}

// ruleSource is one rule-shaped object plus the envelope title, if any.
type ruleSource struct {
	obj   map[string]any
	title string
}

// ruleSources maps every shape to the same list of rule-shaped objects.
func ruleSources(doc types.Document, shape Shape) []ruleSource {
	switch shape {
	case ShapeRuleList:
		list, _ := doc.([]any)
		out := make([]ruleSource, 0, len(list))
		for _, item := range list {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, ruleSource{obj: obj})
			}
		}
		return out

	case ShapeSingleRule:
		obj, _ := doc.(map[string]any)
		return []ruleSource{{obj: obj}}

	case ShapeExportEnvelope:
		obj, _ := doc.(map[string]any)
		responses, ok := asSequence(obj[types.KeyItemsRetrieve])
		if !ok {
			return nil
		}
		out := make([]ruleSource, 0, len(responses))
		for _, r := range responses {
			node, ok := LookupObject(r, types.KeyResponseObject)
			if !ok {
				continue
			}
			title, _ := LookupString(r, types.KeyItemDataInfo, types.KeyTitle)
			out = append(out, ruleSource{obj: node, title: title})
		}
		return out

	default:
		return nil
	}
}
