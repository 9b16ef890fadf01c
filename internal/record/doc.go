// Package record provides the type-erased record model consumed by the
// remote synchronization service.
//
// This package contains value types only. Every internal package may import
// record; record imports nothing internal.
//
// Key constraints:
//   - Value is a sealed interface; only the types in value.go implement it
//   - Null is an explicit field clear, distinct from an absent field
//   - Records are immutable once assembled
//   - MarshalCanonical is the only encoding used for content hashing
package record
