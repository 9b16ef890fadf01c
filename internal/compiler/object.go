package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/recordsync/internal/schema"
)

// CompileObject parses a CUE value into an ObjectModel.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the object struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`object: Cat: { primary_key: "id", properties: [...] }`)
//	model, err := CompileObject(v.LookupPath(cue.ParsePath("object.Cat")))
//
// CompileObject checks shape only. A missing primary key or a dangling
// relationship target compiles; Validate reports those against the catalog.
func CompileObject(v cue.Value) (*schema.ObjectModel, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	model := &schema.ObjectModel{}

	// Type name comes from the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		model.TypeName = labels[len(labels)-1].String()
	}

	pkVal := v.LookupPath(cue.ParsePath("primary_key"))
	if pkVal.Exists() {
		pk, err := pkVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		model.PrimaryKey = pk
	}

	scopeVal := v.LookupPath(cue.ParsePath("scope"))
	if scopeVal.Exists() {
		name, err := scopeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		scope, err := schema.ParseScope(name)
		if err != nil {
			return nil, &CompileError{
				Field:   "scope",
				Message: err.Error(),
				Pos:     scopeVal.Pos(),
			}
		}
		model.Scope = scope
	}

	props, err := parseProperties(v)
	if err != nil {
		return nil, err
	}
	model.Properties = props

	return model, nil
}

// parseProperties extracts the ordered property list.
func parseProperties(v cue.Value) ([]schema.PropertyDescriptor, error) {
	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, &CompileError{
			Field:   "properties",
			Message: "properties are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := propsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var props []schema.PropertyDescriptor
	for i := 0; iter.Next(); i++ {
		prop, err := parseProperty(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}

	if len(props) == 0 {
		return nil, &CompileError{
			Field:   "properties",
			Message: "at least one property is required",
			Pos:     propsVal.Pos(),
		}
	}
	return props, nil
}

// parseProperty parses one {name, type, list?, target?} entry.
func parseProperty(v cue.Value, index int) (schema.PropertyDescriptor, error) {
	var prop schema.PropertyDescriptor

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return prop, &CompileError{
			Field:   "name",
			Message: fmt.Sprintf("properties[%d]: name is required", index),
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return prop, formatCUEError(err)
	}
	prop.Name = name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return prop, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("property %q: type is required", name),
			Pos:     v.Pos(),
		}
	}
	typeName, err := typeVal.String()
	if err != nil {
		return prop, formatCUEError(err)
	}
	kind, err := schema.ParseKind(typeName)
	if err != nil {
		return prop, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("property %q: %v", name, err),
			Pos:     typeVal.Pos(),
		}
	}
	prop.Kind = kind

	// list is optional, defaults to false
	listVal := v.LookupPath(cue.ParsePath("list"))
	if listVal.Exists() {
		isList, err := listVal.Bool()
		if err != nil {
			return prop, formatCUEError(err)
		}
		prop.IsCollection = isList
	}

	targetVal := v.LookupPath(cue.ParsePath("target"))
	if targetVal.Exists() {
		target, err := targetVal.String()
		if err != nil {
			return prop, formatCUEError(err)
		}
		prop.RelatedType = target
	}

	return prop, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
