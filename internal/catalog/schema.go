package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// validator checks decoded records against the embedded CUE schema. A
// validator belongs to one load; cue contexts are not shared between
// goroutines.
type validator struct {
	ctx       *cue.Context
	catalog   cue.Value
	defaults  cue.Value
	statement cue.Value
}

func newValidator() (*validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &validator{
		ctx:       ctx,
		catalog:   schema.LookupPath(cue.ParsePath("#Catalog")),
		defaults:  schema.LookupPath(cue.ParsePath("#Defaults")),
		statement: schema.LookupPath(cue.ParsePath("#Statement")),
	}, nil
}

func (v *validator) check(def cue.Value, x any) error {
	val := v.ctx.Encode(x)
	if err := val.Err(); err != nil {
		return err
	}
	return def.Unify(val).Validate(cue.Concrete(true))
}

// compile evaluates a CUE catalog file against #Catalog and decodes it.
func (v *validator) compile(filename string, data []byte) (map[string]any, error) {
	val := v.ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %s", filename, describe(err))
	}
	unified := v.catalog.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %s", filename, describe(err))
	}
	var raw map[string]any
	if err := unified.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return raw, nil
}

// describe flattens a cue error list into one line.
func describe(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
