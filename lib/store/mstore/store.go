package mstore

import (
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/lib/store/cache"
)

type storeImpl struct {
	*cache.Backend
}

// NewMemoryStore creates a new in-memory backend.
// Nothing is persisted, every update is applied to the index directly.
// This is the backend to test application logic with.
func NewMemoryStore() store.IBackend {
	return NewNamedMemoryStore("memory")
}

// NewNamedMemoryStore is like NewMemoryStore but sets the name used in metrics and Info
func NewNamedMemoryStore(name string) store.IBackend {
	s := &storeImpl{}
	s.Backend = cache.NewBackend(name, s)
	return s
}

// --------------------------------------------------------------------------
// Interface Methods (docu see cache.IUpdateHandler)
// --------------------------------------------------------------------------

func (s *storeImpl) OnUpdate(cs store.ChangeSet, done store.CompletionFunc) error {
	if err := s.Apply(cs.Modified, cs.Deleted); err != nil {
		return err
	}
	done(nil)
	return nil
}
