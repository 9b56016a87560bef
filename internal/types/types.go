// Package types provides the domain model shared across adjrules components.
//
// Two representations coexist. Document is the decoded wire JSON exactly as
// the workforce-management API or an exported file delivered it; it is what
// the update path deep-copies and patches so untouched data survives. Rule,
// RuleVersion, Trigger and Allocation are the typed model the extractor
// builds at the boundary, with stringly-typed wire values already converted
// to float64/bool.
package types

import (
	"bytes"
	"encoding/json"
)

// Document is one decoded JSON value: map[string]any, []any, json.Number,
// string, bool or nil. Decode with DecodeDocument so numbers stay
// json.Number and re-encode without float rounding.
type Document = any

// Object is a JSON object inside a Document.
type Object = map[string]any

// DecodeDocument parses raw JSON into a Document using json.Number for numbers.
func DecodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CloneDocument returns a deep copy of doc. Maps and slices are copied;
// scalars are immutable and shared.
func CloneDocument(doc Document) Document {
	switch v := doc.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = CloneDocument(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = CloneDocument(val)
		}
		return out
	default:
		return v
	}
}

// Wire keys of the adjustment-rule document.
const (
	KeyID                    = "id"
	KeyName                  = "name"
	KeyRuleVersions          = "ruleVersions"
	KeyAdjustmentRuleVersion = "adjustmentRuleVersion"
	KeyTriggers              = "triggers"
	KeyTriggerForRule        = "adjustmentTriggerForRule"
	KeyAllocation            = "adjustmentAllocation"
	KeyAdjustmentType        = "adjustmentType"
	KeyVersionNum            = "versionNum"
	KeyVersionID             = "versionId"
	KeyEffectiveDate         = "effectiveDate"
	KeyExpirationDate        = "expirationDate"
	KeyDescription           = "description"
	KeyItemsRetrieve         = "itemsRetrieveResponses"
	KeyResponseObject        = "responseObjectNode"
	KeyItemDataInfo          = "itemDataInfo"
	KeyTitle                 = "title"
	KeyQualifier             = "qualifier"
)
