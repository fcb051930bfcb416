package entity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Reserved keys of the record form of an entity
const (
	KeyID   = "id"
	KeyType = "@type"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Entity is a typed record with an id that is unique across a whole store,
// regardless of the entity type.
type Entity interface {
	// ID returns the id of the entity. The id never changes once assigned.
	ID() string
	// Type returns the type name of the entity. It selects the container and the alias.
	Type() string
	// Properties returns a copy of the property map of the entity.
	// The reserved keys KeyID and KeyType are never part of the result.
	Properties() map[string]string
	// UpdateProperties merges the given properties into the entity.
	// Reserved keys are ignored.
	UpdateProperties(props map[string]string)
}

// Transient is implemented by entities that can opt out of durable storage
type Transient interface {
	// IsTransient returns true if the entity must never be persisted
	IsTransient() bool
}

// Outsourcing is implemented by entities that store some of their
// properties separately from the main record (see store.IBackend.SaveOutsourcedString)
type Outsourcing interface {
	// OutsourcedProperties returns the names of all outsourced properties
	OutsourcedProperties() []string
}

// IsTransient reports whether e opted out of durable storage
func IsTransient(e Entity) bool {
	t, ok := e.(Transient)
	return ok && t.IsTransient()
}

// OutsourcedProperties returns the outsourced property names of e (nil if e has none)
func OutsourcedProperties(e Entity) []string {
	if o, ok := e.(Outsourcing); ok {
		return o.OutsourcedProperties()
	}
	return nil
}

// NewID generates a new random entity id
func NewID() string {
	return uuid.NewString()
}

// ValidID returns an error wrapping ErrInvalidName if id can not be used as
// a single path element: empty, "." or "..", or containing a path separator.
func ValidID(id string) error {
	return validName("entity id", id)
}

// ValidPropertyName is like ValidID for property names
func ValidPropertyName(name string) error {
	return validName("property name", name)
}

func validName(kind, s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\\x00") {
		return fmt.Errorf("%w: %s %q", ErrInvalidName, kind, s)
	}
	return nil
}

// --------------------------------------------------------------------------
// Record form
// --------------------------------------------------------------------------

// ToData converts an entity to its flat record form.
// The given alias is stored under KeyType, outsourced properties are left out.
func ToData(e Entity, alias string) map[string]string {
	props := e.Properties()
	for _, name := range OutsourcedProperties(e) {
		delete(props, name)
	}
	props[KeyID] = e.ID()
	props[KeyType] = alias
	return props
}

// StripReserved returns a copy of data without the reserved keys
func StripReserved(data map[string]string) map[string]string {
	props := make(map[string]string, len(data))
	for k, v := range data {
		if k == KeyID || k == KeyType {
			continue
		}
		props[k] = v
	}
	return props
}
