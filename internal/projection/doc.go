// Package projection turns schema-described live objects into records.
//
// A projection runs in five stages:
//
//  1. Identity: DeriveRecordID reads the primary key and DeriveZone names the
//     zone the record lives in.
//  2. Dispatch: Classify routes each property by its declared kind.
//  3. Collections: ordered scalar sequences become record.Array values.
//  4. Relationships: related objects become record.Reference values; to-many
//     relationships drop tombstoned targets and clear to Null when empty.
//  5. Assembly: Projector.Project composes the stages in schema order.
//
// Failures are typed. A fatal *Error (schema-level) means no instance of the
// type can be projected; a soft *Error (instance-level) means one record was
// skipped. Field-level problems never fail a projection: the field is omitted
// or cleared and a Diagnostic is attached to the Result.
//
// Projection performs no I/O and holds no per-call state. A Projector may be
// shared by concurrent workers, see ProjectAll.
package projection
