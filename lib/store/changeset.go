package store

import (
	"github.com/ValentinKolb/dEntity/lib/entity"
)

// ChangeSet is the unit of a commit
type ChangeSet struct {
	Modified          []entity.Entity     // Created or changed entities
	Deleted           []string            // Ids of deleted entities
	ChangedProperties map[string][]string // Entity id -> names of the changed properties (optional)
	Description       string              // Free text describing the commit (optional)
}

// Save returns a change set saving the given entities
func Save(entities ...entity.Entity) ChangeSet {
	return ChangeSet{Modified: entities}
}

// Delete returns a change set deleting the given ids
func Delete(ids ...string) ChangeSet {
	return ChangeSet{Deleted: ids}
}

// IsEmpty returns true if the change set neither modifies nor deletes anything
func (cs ChangeSet) IsEmpty() bool {
	return len(cs.Modified) == 0 && len(cs.Deleted) == 0
}

// Normalize returns a copy of the change set without duplicates in which
// every id that is both modified and deleted is only deleted.
// The order of first occurrence is kept.
func (cs ChangeSet) Normalize() ChangeSet {
	out := ChangeSet{
		Description:       cs.Description,
		ChangedProperties: cs.ChangedProperties,
	}

	deleted := make(map[string]struct{}, len(cs.Deleted))
	for _, id := range cs.Deleted {
		if _, dup := deleted[id]; dup {
			continue
		}
		deleted[id] = struct{}{}
		out.Deleted = append(out.Deleted, id)
	}

	seen := make(map[string]struct{}, len(cs.Modified))
	for _, e := range cs.Modified {
		if e == nil {
			continue
		}
		if _, del := deleted[e.ID()]; del {
			continue
		}
		if _, dup := seen[e.ID()]; dup {
			continue
		}
		seen[e.ID()] = struct{}{}
		out.Modified = append(out.Modified, e)
	}
	return out
}

// Changed returns the changed property names of an entity and whether they are known
func (cs ChangeSet) Changed(id string) ([]string, bool) {
	if cs.ChangedProperties == nil {
		return nil, false
	}
	names, ok := cs.ChangedProperties[id]
	return names, ok
}
