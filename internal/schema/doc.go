// Package schema describes persisted object types and the live-object
// interfaces the projection engine reads from.
//
// The persistence layer owns models and instances; this package only defines
// their shape. Catalogs are built once and never mutated afterwards.
package schema
