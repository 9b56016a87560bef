package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/solatis/adjrules/internal/types"
)

//go:embed schema/rule.cue
var schemaSource []byte

// SchemaKind names a definition in the embedded CUE schema.
type SchemaKind string

const (
	// SchemaRule is a rule document as the API returns and accepts it.
	SchemaRule SchemaKind = "#Rule"
	// SchemaExportEnvelope is a standalone export file.
	SchemaExportEnvelope SchemaKind = "#ExportEnvelope"
)

// schemaRuntime guards the CUE context; values derived from one context
// must not be used concurrently.
var schemaRuntime struct {
	once   sync.Once
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
	err    error
}

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaRuntime.once.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileBytes(schemaSource)
		if v.Err() != nil {
			schemaRuntime.err = fmt.Errorf("compile schema: %w", v.Err())
			return
		}
		schemaRuntime.ctx = ctx
		schemaRuntime.schema = v
	})
	return schemaRuntime.ctx, schemaRuntime.schema, schemaRuntime.err
}

// ValidateDocument checks doc against the kind definition.
// Definitions are open: unknown keys pass, wrong types and missing
// required structure fail with an error wrapping types.ErrSchema.
func ValidateDocument(kind SchemaKind, doc types.Document) error {
	ctx, schema, err := loadSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", types.ErrSchema, kind, err)
	}

	schemaRuntime.mu.Lock()
	defer schemaRuntime.mu.Unlock()

	def := schema.LookupPath(cue.ParsePath(string(kind)))
	if !def.Exists() {
		return fmt.Errorf("%w: unknown schema kind %s", types.ErrSchema, kind)
	}

	v := ctx.CompileBytes(data)
	if v.Err() != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrSchema, kind, v.Err())
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrSchema, kind, err)
	}
	return nil
}
