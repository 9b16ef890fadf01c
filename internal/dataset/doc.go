// Package dataset loads live-object snapshots from YAML.
//
// A dataset stands in for the local persistence engine: each entry is an
// object of a catalog type whose values are converted to the Go types the
// projection engine expects for the declared kinds. Relationship values
// name the primary keys of other objects in the same file.
//
//	objects:
//	  - type: Person
//	    values: {id: p1, name: Jon}
//	  - type: Cat
//	    deleted: false
//	    values:
//	      id: c1
//	      tags: [indoor, grumpy]
//	      owner: p1
//	      home: {latitude: 51.5, longitude: -0.125}
//	      photo: {file_url: "file:///tmp/tom.png"}
//
// Values that cannot be converted are kept as decoded so that projection
// reports the mismatch instead of the loader rejecting the file.
package dataset
