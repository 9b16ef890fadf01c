package compiler

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/recordsync/internal/schema"
)

// CompileSource compiles every object.<Type> struct in a single CUE document,
// in declaration order. Stops at the first compile error.
func CompileSource(src []byte, filename string) ([]*schema.ObjectModel, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	objects := v.LookupPath(cue.ParsePath("object"))
	if !objects.Exists() {
		return nil, &CompileError{Field: "object", Message: "no object types defined"}
	}
	iter, err := objects.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var models []*schema.ObjectModel
	for iter.Next() {
		model, err := CompileObject(iter.Value())
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}
