package cache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/query"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

// container holds all entities of one type by id
type container = *xsync.MapOf[string, entity.Entity]

// Index is the in-memory index shared by all backends.
// It holds one container per type and remembers which type owns an id,
// so an id is never held by two containers at the same time.
//
// Thread-safety: Reads are lock free. Mutations are serialized by a mutex so
// the owner map and the containers stay consistent.
type Index struct {
	mu         sync.Mutex
	containers *xsync.MapOf[string, container]
	owners     *xsync.MapOf[string, string]
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		containers: xsync.NewMapOf[string, container](),
		owners:     xsync.NewMapOf[string, string](),
	}
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// Declare creates the container for a type if it does not exist yet
func (idx *Index) Declare(typeName string) {
	idx.containers.LoadOrCompute(typeName, func() container {
		return xsync.NewMapOf[string, entity.Entity]()
	})
}

// Add inserts or replaces an entity. It fails with RetCInvalidOperation
// if the id is already held by a container of another type.
func (idx *Index) Add(e entity.Entity) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if owner, ok := idx.owners.Load(e.ID()); ok && owner != e.Type() {
		return store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("id %s is already used by an entity of type %s", e.ID(), owner))
	}
	idx.put(e)
	return nil
}

// Put inserts or replaces an entity. An entity of another type with the
// same id is removed first.
func (idx *Index) Put(e entity.Entity) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.remove(e.ID())
	idx.put(e)
}

// Remove removes an entity by id and returns it (nil if it was not held)
func (idx *Index) Remove(id string) entity.Entity {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.remove(id)
}

// RemoveAll removes all given ids. Ids that are not held are ignored.
func (idx *Index) RemoveAll(ids []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, id := range ids {
		idx.remove(id)
	}
}

// Apply adds all saved entities and removes all deleted ids.
// Saves are applied first, so an id in both lists ends up removed.
func (idx *Index) Apply(saves []entity.Entity, deletes []string) error {
	for _, e := range saves {
		if err := idx.Add(e); err != nil {
			return err
		}
	}
	idx.RemoveAll(deletes)
	return nil
}

// put stores the entity without any checks (caller holds idx.mu)
func (idx *Index) put(e entity.Entity) {
	c, _ := idx.containers.LoadOrCompute(e.Type(), func() container {
		return xsync.NewMapOf[string, entity.Entity]()
	})
	c.Store(e.ID(), e)
	idx.owners.Store(e.ID(), e.Type())
}

// remove deletes the entity from its container (caller holds idx.mu)
func (idx *Index) remove(id string) entity.Entity {
	owner, ok := idx.owners.LoadAndDelete(id)
	if !ok {
		return nil
	}
	c, ok := idx.containers.Load(owner)
	if !ok {
		return nil
	}
	e, _ := c.LoadAndDelete(id)
	return e
}

// --------------------------------------------------------------------------
// Lookups
// --------------------------------------------------------------------------

// Get returns the entity with the given id from the container of one type
func (idx *Index) Get(typeName, id string) (entity.Entity, bool) {
	c, ok := idx.containers.Load(typeName)
	if !ok {
		return nil, false
	}
	return c.Load(id)
}

// Lookup returns the entity with the given id
func (idx *Index) Lookup(id string) (entity.Entity, bool) {
	owner, ok := idx.owners.Load(id)
	if !ok {
		return nil, false
	}
	return idx.Get(owner, id)
}

// Types returns the names of all declared types in sorted order
func (idx *Index) Types() []string {
	types := make([]string, 0, idx.containers.Size())
	idx.containers.Range(func(typeName string, _ container) bool {
		types = append(types, typeName)
		return true
	})
	sort.Strings(types)
	return types
}

// IsDeclared returns whether a container exists for the type
func (idx *Index) IsDeclared(typeName string) bool {
	_, ok := idx.containers.Load(typeName)
	return ok
}

// Count returns the number of entities of one type, or of all types if typeName is empty
func (idx *Index) Count(typeName string) int {
	if typeName == "" {
		return idx.owners.Size()
	}
	c, ok := idx.containers.Load(typeName)
	if !ok {
		return 0
	}
	return c.Size()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IBackend)
// --------------------------------------------------------------------------

func (idx *Index) GetByID(id string) (entity.Entity, error) {
	e, ok := idx.Lookup(id)
	if !ok {
		return nil, store.NewError(store.RetCEntityNotFound, fmt.Sprintf("no entity with id %s", id))
	}
	return e, nil
}

func (idx *Index) GetByIDs(ids []string) ([]entity.Entity, error) {
	result := make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		e, err := idx.GetByID(id)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func (idx *Index) ContainsWithID(id string) bool {
	_, ok := idx.Lookup(id)
	return ok
}

func (idx *Index) GetAll() []entity.Entity {
	return idx.Find(query.All())
}

// Find returns all matching entities sorted by id
func (idx *Index) Find(q query.IQuery) []entity.Entity {
	var result []entity.Entity
	_, allOfType := q.(query.AllOfType)

	idx.containers.Range(func(typeName string, c container) bool {
		if !q.TestType(typeName) {
			return true
		}
		c.Range(func(_ string, e entity.Entity) bool {
			if allOfType || q.Test(e) {
				result = append(result, e)
			}
			return true
		})
		return true
	})

	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

func (idx *Index) FindFirst(q query.IQuery) (entity.Entity, bool) {
	var found entity.Entity
	_, allOfType := q.(query.AllOfType)

	idx.containers.Range(func(typeName string, c container) bool {
		if !q.TestType(typeName) {
			return true
		}
		c.Range(func(_ string, e entity.Entity) bool {
			if allOfType || q.Test(e) {
				found = e
				return false
			}
			return true
		})
		return found == nil
	})
	return found, found != nil
}
