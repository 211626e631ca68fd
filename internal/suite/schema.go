package suite

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource []byte

// SchemaError is a manifest that does not satisfy the #Suite schema.
type SchemaError struct {
	Message string
	Pos     token.Pos // position in the manifest, if known
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// ValidateSchema checks manifest YAML against the embedded CUE #Suite
// definition. filename is used in error positions.
//
// Load performs the equivalent checks in Go; ValidateSchema adds source
// positions and is what the validate command reports.
func ValidateSchema(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile suite schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Suite"))

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return formatSchemaError(err, filename)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return formatSchemaError(err, filename)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatSchemaError(err, filename)
	}
	return nil
}

// formatSchemaError keeps the first CUE error, positioned in the manifest
// when CUE reports a position there.
func formatSchemaError(err error, filename string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}

	first := errs[0]
	se := &SchemaError{Message: first.Error()}
	for _, pos := range errors.Positions(first) {
		if pos.Filename() == filename {
			se.Pos = pos
			break
		}
	}
	return se
}
