package entity

import (
	"sync"
)

// Record is the default entity implementation.
// It holds its properties in a map guarded by a mutex and is safe for concurrent use.
type Record struct {
	id         string
	typeName   string
	mu         sync.RWMutex
	props      map[string]string
	transient  bool
	outsourced []string
}

// NewRecord creates an empty record of the given type. If id is empty a new id is generated.
func NewRecord(typeName, id string) *Record {
	if id == "" {
		id = NewID()
	}
	return &Record{
		id:       id,
		typeName: typeName,
		props:    make(map[string]string),
	}
}

// Get returns a single property and whether it was set
func (r *Record) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.props[name]
	return v, ok
}

// Set sets a single property and returns the record for chaining
func (r *Record) Set(name, value string) *Record {
	if name == KeyID || name == KeyType {
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.props[name] = value
	return r
}

// Unset removes a property
func (r *Record) Unset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.props, name)
}

// SetTransient marks the record as transient (never persisted)
func (r *Record) SetTransient(transient bool) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transient = transient
	return r
}

// SetOutsourced sets the names of the properties that are stored outside the main record
func (r *Record) SetOutsourced(names ...string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outsourced = append([]string(nil), names...)
	return r
}

// --------------------------------------------------------------------------
// Interface Methods (docu see entity.Entity)
// --------------------------------------------------------------------------

func (r *Record) ID() string { return r.id }

func (r *Record) Type() string { return r.typeName }

func (r *Record) Properties() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	props := make(map[string]string, len(r.props))
	for k, v := range r.props {
		props[k] = v
	}
	return props
}

func (r *Record) UpdateProperties(props map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range props {
		if k == KeyID || k == KeyType {
			continue
		}
		r.props[k] = v
	}
}

func (r *Record) IsTransient() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transient
}

func (r *Record) OutsourcedProperties() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.outsourced...)
}
