// Package harness runs projection conformance scenarios.
//
// A scenario is a YAML file holding an inline CUE schema, a list of dataset
// objects and assertions on the projected records. Each run compiles the
// schema, validates the catalog, projects every live object and, when the
// scenario asks for it, writes the records through an in-memory outbox.
//
// Example scenario:
//
//	name: tombstoned_friend
//	description: Deleted objects are dropped from to-many relationships
//	schema: |
//	  object: Cat: {
//	    primary_key: "id"
//	    properties: [
//	      {name: "id", type: "string"},
//	      {name: "friends", type: "object", target: "Cat", list: true},
//	    ]
//	  }
//	objects:
//	  - type: Cat
//	    values: {id: c1, friends: [c2]}
//	  - type: Cat
//	    deleted: true
//	    values: {id: c2}
//	assertions:
//	  - type: field_equals
//	    record: __defaultOwner__/CatsZone/c1
//	    field: friends
//	    value: 'null'
//
// RunWithGolden additionally compares a line-oriented snapshot of the run
// against testdata/golden/{name}.golden.
package harness
