package query

import (
	"github.com/ValentinKolb/dEntity/lib/entity"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IQuery is a predicate bound to an entity type (or to all types).
// Backends call TestType once per type container and Test for every
// entity of a matching container.
type IQuery interface {
	// TestType returns true if entities of the given type can match
	TestType(typeName string) bool
	// Test returns true if the entity matches
	Test(e entity.Entity) bool
}

// Predicate is a function testing a single entity
type Predicate func(e entity.Entity) bool

// --------------------------------------------------------------------------
// Query Types
// --------------------------------------------------------------------------

// AllOfType matches every entity of one type. Backends may special case
// this query and skip the per entity test.
type AllOfType struct {
	TypeName string
}

func (q AllOfType) TestType(typeName string) bool { return typeName == q.TypeName }

func (q AllOfType) Test(e entity.Entity) bool { return e.Type() == q.TypeName }

// OfType returns a query matching all entities of the given type
func OfType(typeName string) AllOfType {
	return AllOfType{TypeName: typeName}
}

// predicateQuery tests entities of an optional type with a predicate
type predicateQuery struct {
	typeName  string
	predicate Predicate
}

func (q predicateQuery) TestType(typeName string) bool {
	return q.typeName == "" || q.typeName == typeName
}

func (q predicateQuery) Test(e entity.Entity) bool {
	if !q.TestType(e.Type()) {
		return false
	}
	return q.predicate == nil || q.predicate(e)
}

// All returns a query matching every entity of every type
func All() IQuery {
	return predicateQuery{}
}

// Where returns a query matching entities of the given type for which pred
// returns true. An empty type name matches all types.
func Where(typeName string, pred Predicate) IQuery {
	return predicateQuery{typeName: typeName, predicate: pred}
}

// ByProperty returns a query matching entities of the given type whose
// property name equals value. An empty type name matches all types.
func ByProperty(typeName, name, value string) IQuery {
	return Where(typeName, func(e entity.Entity) bool {
		v, ok := e.Properties()[name]
		return ok && v == value
	})
}
