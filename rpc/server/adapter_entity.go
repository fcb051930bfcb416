package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/query"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/rpc/common"
)

// NewEntityServerAdapter creates the adapter serving the entity backend of a shard.
// notify may be nil. Updates wait at most timeout for the backend to complete (0 = no limit).
func NewEntityServerAdapter(shardId uint64, registry *entity.Registry, timeout time.Duration, notify NotifyFunc) IRPCServerAdapter {
	return &entityServerAdapterImpl{
		shardId:  shardId,
		registry: registry,
		timeout:  timeout,
		notify:   notify,
	}
}

type entityServerAdapterImpl struct {
	shardId  uint64
	registry *entity.Registry
	timeout  time.Duration
	notify   NotifyFunc

	mu sync.Mutex // one committer per backend
}

func (adapter *entityServerAdapterImpl) Handle(req *common.Message, backend store.IBackend) *common.Message {
	if backend == nil {
		return common.NewErrorResponse(store.NewError(store.RetCInternalError, "handler: backend is nil"))
	}

	switch req.MsgType {
	case common.MsgTUpdate:
		return common.NewUpdateResponse(adapter.update(req, backend))
	case common.MsgTGet:
		entities, err := adapter.get(req.IDs, backend)
		return common.NewGetResponse(entities, err)
	case common.MsgTFind:
		entities, err := adapter.find(req, backend)
		return common.NewFindResponse(entities, err)
	case common.MsgTLoadOutsourced:
		value, err := adapter.loadOutsourced(req, backend)
		return common.NewLoadOutsourcedResponse(value, err == nil, err)
	case common.MsgTSaveOutsourced:
		return common.NewSaveOutsourcedResponse(adapter.saveOutsourced(req, backend))
	case common.MsgTInfo:
		return common.NewInfoResponse(backend.Info(), nil)
	default:
		return common.NewErrorResponse(store.NewError(store.RetCUnsupportedOperation,
			fmt.Sprintf("unsupported message type: %s", req.MsgType)))
	}
}

// --------------------------------------------------------------------------
// Update
// --------------------------------------------------------------------------

// update applies the records of req as one change set and notifies the push subscribers.
// Records listed in req.Changed are merged into the stored entity, all others replace it.
func (adapter *entityServerAdapterImpl) update(req *common.Message, backend store.IBackend) error {
	adapter.mu.Lock()
	defer adapter.mu.Unlock()

	modified := make([]entity.Entity, 0, len(req.Entities))
	for _, data := range req.Entities {
		_, partial := req.Changed[data[entity.KeyID]]
		e, err := adapter.merge(data, partial, backend)
		if err != nil {
			return err
		}
		modified = append(modified, e)
	}

	cs := store.ChangeSet{
		Modified:          modified,
		Deleted:           req.IDs,
		ChangedProperties: req.Changed,
	}.Normalize()
	if cs.IsEmpty() {
		return nil
	}

	if err := adapter.apply(cs, backend); err != nil {
		return err
	}

	if adapter.notify != nil {
		n := common.Notification{Shard: adapter.shardId, Deleted: cs.Deleted}
		for _, e := range cs.Modified {
			n.Entities = append(n.Entities, adapter.data(e))
		}
		adapter.notify(n)
	}
	return nil
}

// merge builds the entity stored for data. The stored entity itself is never
// mutated, readers only see the new state once the backend applied it.
func (adapter *entityServerAdapterImpl) merge(data map[string]string, partial bool, backend store.IBackend) (entity.Entity, error) {
	id := data[entity.KeyID]
	if id == "" {
		return nil, store.NewError(store.RetCInvalidOperation, "record without id")
	}

	typeName := data[entity.KeyType]
	existing, err := backend.GetByID(id)
	switch {
	case err == nil:
		if typeName == "" {
			typeName = existing.Type()
		}
	case errors.Is(err, store.ErrEntityNotFound):
		existing = nil
	default:
		return nil, err
	}

	e, err := adapter.registry.Create(typeName, id)
	if err != nil {
		return nil, store.WrapError(store.RetCInvalidOperation, err, "cannot create entity %s", id)
	}
	if existing != nil && existing.Type() != e.Type() {
		return nil, store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("entity %s is of type %s, not %s", id, existing.Type(), e.Type()))
	}
	if existing != nil && partial {
		e.UpdateProperties(existing.Properties())
	}
	e.UpdateProperties(entity.StripReserved(data))
	return e, nil
}

// apply runs the change set on the backend and waits for its completion
func (adapter *entityServerAdapterImpl) apply(cs store.ChangeSet, backend store.IBackend) error {
	result := make(chan error, 1)
	if err := backend.Update(cs, func(err error) { result <- err }); err != nil {
		return err
	}

	if adapter.timeout <= 0 {
		return <-result
	}
	select {
	case err := <-result:
		return err
	case <-time.After(adapter.timeout):
		return store.NewError(store.RetCInternalError, "update did not complete in time")
	}
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// get returns the records of all known ids, unknown ids are skipped
func (adapter *entityServerAdapterImpl) get(ids []string, backend store.IBackend) ([]map[string]string, error) {
	entities := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		e, err := backend.GetByID(id)
		if errors.Is(err, store.ErrEntityNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entities = append(entities, adapter.data(e))
	}
	return entities, nil
}

func (adapter *entityServerAdapterImpl) find(req *common.Message, backend store.IBackend) ([]map[string]string, error) {
	info, ok := adapter.registry.Lookup(req.TypeName)
	if !ok {
		return nil, store.NewError(store.RetCInvalidOperation, "unknown entity type "+req.TypeName)
	}

	var q query.IQuery = query.OfType(info.Name)
	if req.Property != "" {
		q = query.ByProperty(info.Name, req.Property, req.Value)
	}

	found := backend.Find(q)
	entities := make([]map[string]string, 0, len(found))
	for _, e := range found {
		entities = append(entities, adapter.data(e))
	}
	return entities, nil
}

// --------------------------------------------------------------------------
// Outsourced strings
// --------------------------------------------------------------------------

func (adapter *entityServerAdapterImpl) loadOutsourced(req *common.Message, backend store.IBackend) (string, error) {
	e, err := adapter.target(req, backend)
	if err != nil {
		return "", err
	}
	return backend.LoadOutsourcedString(e, req.Property)
}

func (adapter *entityServerAdapterImpl) saveOutsourced(req *common.Message, backend store.IBackend) error {
	e, err := adapter.target(req, backend)
	if err != nil {
		return err
	}
	return backend.SaveOutsourcedString(e, req.Property, req.Value)
}

// target returns the entity an outsourced string request refers to
func (adapter *entityServerAdapterImpl) target(req *common.Message, backend store.IBackend) (entity.Entity, error) {
	if len(req.IDs) != 1 || req.Property == "" {
		return nil, store.NewError(store.RetCInvalidOperation, "outsourced string request needs one id and a property")
	}
	return backend.GetByID(req.IDs[0])
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// data returns the record form of e, the alias is taken from the registry
func (adapter *entityServerAdapterImpl) data(e entity.Entity) map[string]string {
	alias := e.Type()
	if info, ok := adapter.registry.ByName(e.Type()); ok {
		alias = info.Alias
	}
	return entity.ToData(e, alias)
}
