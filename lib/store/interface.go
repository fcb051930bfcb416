package store

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/query"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// CompletionFunc is called exactly once when an update finished.
// err is nil if the change is visible to subsequent reads on the backend.
type CompletionFunc func(err error)

// IBackend is the interface every storage strategy implements.
// Lookups return *Error values (see RetCode) so callers can react to specific conditions.
type IBackend interface {
	// Update applies a change set. Ids in Deleted that are not held by the backend are ignored.
	// onComplete may be nil and is called exactly once. A synchronous failure is passed to
	// onComplete and returned; asynchronous backends return nil once the change set is accepted.
	Update(cs ChangeSet, onComplete CompletionFunc) error
	// GetByID returns the entity with the given id or an error with code RetCEntityNotFound.
	GetByID(id string) (entity.Entity, error)
	// GetByIDs returns the entities for all ids in order. If any id is absent no partial
	// result is returned but an error with code RetCEntityNotFound.
	GetByIDs(ids []string) ([]entity.Entity, error)
	// ContainsWithID returns whether an entity with the given id is held by the backend.
	ContainsWithID(id string) bool
	// GetAll returns all entities held by the backend.
	GetAll() []entity.Entity
	// Find returns all entities matching the query. The order is defined by the backend.
	Find(q query.IQuery) []entity.Entity
	// FindFirst returns any entity matching the query. The boolean indicates whether one was found.
	FindFirst(q query.IQuery) (entity.Entity, bool)
	// LoadOutsourcedString loads an outsourced property of an entity.
	// A property that was never saved is returned as empty string.
	LoadOutsourcedString(e entity.Entity, property string) (string, error)
	// SaveOutsourcedString saves an outsourced property of an entity.
	SaveOutsourcedString(e entity.Entity, property, value string) error
	// IsPartial returns true if the backend only holds a subset of the entities by design.
	IsPartial() bool
	// Info returns a human readable description of the backend.
	Info() string
}

// IDurableBackend is a backend that persists its entities and loads them on startup.
type IDurableBackend interface {
	IBackend
	// Load reads all entities of one type into memory. Files that cannot be read fail the load
	// with RetCCorruptEntityFile, unless deleteOnFailure is set, then they are deleted.
	Load(typeName string, deleteOnFailure bool) error
	// LoadAll calls Load for every registered type.
	LoadAll(deleteOnFailure bool) error
	// Lock makes all further updates fail with RetCStoreLocked. Calling Lock more than once is fine.
	Lock()
	// IsLocked returns whether Lock was called.
	IsLocked() bool
	// State returns the current lifecycle state of the backend.
	State() State
}

// IPartialBackend is a backend that only holds the entities it was told about.
// Changes are forwarded to a remote authority, which in turn pushes updates back.
type IPartialBackend interface {
	IBackend
	// UpdateFromServer ingests records pushed by the remote authority. Unknown ids are created,
	// known entities are updated in place. It returns every touched entity once.
	// Ingested data is never forwarded.
	UpdateFromServer(datas []map[string]string) ([]entity.Entity, error)
	// OnEntityDeletionsReceived removes the ids from the cache. Nothing is forwarded.
	OnEntityDeletionsReceived(ids []string)
	// EnsureLoaded fetches all ids that are not cached yet from the remote authority.
	EnsureLoaded(ctx context.Context, ids ...string) error
	// Close waits for all pending updates and stops forwarding.
	Close() error
}

// --------------------------------------------------------------------------
// Backend State
// --------------------------------------------------------------------------

// State is the lifecycle state of a durable backend
type State int32

const (
	StateUnversioned    State = iota // no version check happened yet
	StateVersionChecked              // the stored version was checked
	StateRunning                     // the version was written by the first update
	StateLocked                      // no further updates are accepted
)

func (s State) String() string {
	switch s {
	case StateUnversioned:
		return "Unversioned"
	case StateVersionChecked:
		return "VersionChecked"
	case StateRunning:
		return "Running"
	case StateLocked:
		return "Locked"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
