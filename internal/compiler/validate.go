package compiler

import (
	"fmt"

	"github.com/roach88/recordsync/internal/schema"
)

// Validation error codes (E100-E199)
const (
	ErrMissingPrimaryKey     = "E101" // type declares no primary key
	ErrUnknownPrimaryKey     = "E102" // primary key names no property
	ErrUnsupportedPrimaryKey = "E103" // primary key is neither string nor int
	ErrUnknownKind           = "E104" // property kind is not a known kind
	ErrDuplicateProperty     = "E105" // duplicate property name
	ErrMissingTarget         = "E106" // object property has no target type
	ErrUnknownTarget         = "E107" // target type is not in the catalog
	ErrListPrimaryKey        = "E108" // primary key declared as a list
	ErrInvalidScope          = "E109" // scope has no zone rule
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Type    string `json:"type"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// Validate checks every model in the catalog against the projection rules.
// Returns all errors found (does not fail-fast).
//
// A catalog that validates cleanly never yields a fatal projection error.
func Validate(catalog *schema.Catalog) []ValidationError {
	var errs []ValidationError
	for _, model := range catalog.Models() {
		errs = append(errs, validateModel(catalog, model)...)
	}
	return errs
}

func validateModel(catalog *schema.Catalog, model *schema.ObjectModel) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Type:    model.TypeName,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	// E109: only private and public scopes derive a zone
	if model.Scope != schema.ScopePrivate && model.Scope != schema.ScopePublic {
		add("scope", ErrInvalidScope, "%s database is not supported", model.Scope)
	}

	// E101-E103, E108: primary key
	if model.PrimaryKey == "" {
		add("primary_key", ErrMissingPrimaryKey, "type must declare a primary key")
	} else if pk, ok := model.PrimaryKeyProperty(); !ok {
		add("primary_key", ErrUnknownPrimaryKey, "primary key %q names no property", model.PrimaryKey)
	} else {
		if pk.IsCollection {
			add(pk.Name, ErrListPrimaryKey, "primary key must not be a list")
		}
		if pk.Kind != schema.KindString && pk.Kind != schema.KindInt {
			add(pk.Name, ErrUnsupportedPrimaryKey, "primary key must be string or int, got %s", pk.Kind)
		}
	}

	seen := make(map[string]bool, len(model.Properties))
	for _, prop := range model.Properties {
		// E105: duplicate property name
		if seen[prop.Name] {
			add(prop.Name, ErrDuplicateProperty, "duplicate property %q", prop.Name)
		}
		seen[prop.Name] = true

		// E104: kind must be declared
		if prop.Kind <= schema.KindInvalid || int(prop.Kind) >= schema.KindCount {
			add(prop.Name, ErrUnknownKind, "unknown kind %s", prop.Kind)
			continue
		}

		if prop.Kind != schema.KindObject {
			continue
		}

		// E106/E107: object properties must point at a catalog type
		switch {
		case prop.RelatedType == "":
			add(prop.Name, ErrMissingTarget, "object property must name a target type")
		case prop.RelatedType == schema.LocationType && !prop.IsCollection,
			prop.RelatedType == schema.AssetType && !prop.IsCollection:
			// native wrappers are not catalog types
		default:
			if _, ok := catalog.Lookup(prop.RelatedType); !ok {
				add(prop.Name, ErrUnknownTarget, "target type %q is not in the catalog", prop.RelatedType)
			}
		}
	}

	return errs
}
