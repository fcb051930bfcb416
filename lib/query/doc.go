// Package query provides the predicate objects used to search backends.
//
// A query has two parts: TestType selects the type containers that are
// searched at all and Test decides for every entity in those containers.
// AllOfType is the distinguished "everything of type T" query that backends
// evaluate by copying the container without calling Test.
package query
