package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrUnknownType is returned when a type name or alias is not registered
	ErrUnknownType = errors.New("unknown entity type")
	// ErrAliasTaken is returned when two types are registered under the same alias
	ErrAliasTaken = errors.New("alias already registered")
	// ErrInvalidName is returned for ids and property names that can not be used as a file name
	ErrInvalidName = errors.New("invalid name")
)

// Factory creates a new empty entity with the given id
type Factory func(id string) Entity

// TypeInfo describes a registered entity type
type TypeInfo struct {
	Name    string  // The type name as returned by Entity.Type()
	Alias   string  // The short name used in files, directories and on the wire
	Factory Factory // Creates new entities of this type
}

// Dir returns the directory name for the type (the alias with a lowercase first letter)
func (t TypeInfo) Dir() string {
	return LowerFirst(t.Alias)
}

// Registry maps type names to their aliases and factories.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]TypeInfo
	byAlias map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]TypeInfo),
		byAlias: make(map[string]string),
	}
}

// Register adds a type to the registry. An empty alias defaults to the type name,
// a nil factory creates Record entities. Registering the same name and alias twice is a no-op.
func (r *Registry) Register(name, alias string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("entity type name must not be empty")
	}
	if alias == "" {
		alias = name
	}
	if factory == nil {
		factory = func(id string) Entity { return NewRecord(name, id) }
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		if existing.Alias == alias {
			return nil
		}
		return fmt.Errorf("type %s is already registered with alias %s", name, existing.Alias)
	}
	for _, key := range []string{alias, LowerFirst(alias)} {
		if owner, ok := r.byAlias[key]; ok && owner != name {
			return fmt.Errorf("%w: %s is used by type %s", ErrAliasTaken, alias, owner)
		}
	}

	r.byName[name] = TypeInfo{Name: name, Alias: alias, Factory: factory}
	r.byAlias[alias] = name
	r.byAlias[LowerFirst(alias)] = name
	return nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(name, alias string, factory Factory) {
	if err := r.Register(name, alias, factory); err != nil {
		panic(err)
	}
}

// ByName returns the type info for a type name
func (r *Registry) ByName(name string) (TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byName[name]
	return info, ok
}

// ByAlias returns the type info for an alias. The alias with a lowercase
// first letter is accepted as well.
func (r *Registry) ByAlias(alias string) (TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byAlias[alias]
	if !ok {
		return TypeInfo{}, false
	}
	return r.byName[name], true
}

// Lookup resolves either a type name or an alias
func (r *Registry) Lookup(typeOrAlias string) (TypeInfo, bool) {
	if info, ok := r.ByName(typeOrAlias); ok {
		return info, true
	}
	return r.ByAlias(typeOrAlias)
}

// Create constructs a new entity of the given type (name or alias)
func (r *Registry) Create(typeOrAlias, id string) (Entity, error) {
	info, ok := r.Lookup(typeOrAlias)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeOrAlias)
	}
	e := info.Factory(id)
	if err := ValidID(e.ID()); err != nil {
		return nil, err
	}
	return e, nil
}

// Types returns all registered types sorted by name
func (r *Registry) Types() []TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]TypeInfo, 0, len(r.byName))
	for _, info := range r.byName {
		types = append(types, info)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// ParseTypeList parses a comma separated list of type declarations of the
// form "Name" or "Name=alias" and registers them in a new registry.
func ParseTypeList(list string) (*Registry, error) {
	reg := NewRegistry()
	for _, decl := range strings.Split(list, ",") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, alias, _ := strings.Cut(decl, "=")
		if err := reg.Register(strings.TrimSpace(name), strings.TrimSpace(alias), nil); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LowerFirst returns s with its first letter in lowercase
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
