package rstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/lib/store/cache"
	"github.com/ValentinKolb/dEntity/lib/util"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// Options configures the forwarding of a remote store
type Options struct {
	Retries int           // Number of retries after a failed forward
	Backoff time.Duration // Wait time before the first retry, doubled for every further retry
	Timeout time.Duration // Timeout of a single forward attempt
}

// DefaultOptions returns the options used for zero values
func DefaultOptions() Options {
	return Options{
		Retries: 3,
		Backoff: 100 * time.Millisecond,
		Timeout: 10 * time.Second,
	}
}

// job is a change set waiting to be forwarded
type job struct {
	cs   store.ChangeSet
	done store.CompletionFunc
}

type storeImpl struct {
	*cache.Backend
	registry  *entity.Registry
	forwarder IForwarder
	opts      Options

	queue   *util.Queue[job]
	stopped chan struct{}

	closeMu sync.RWMutex // guards closed against concurrent pushes
	closed  bool
}

// NewRemoteStore creates a partial backend that forwards all local changes to a
// remote authority. Changes are forwarded in commit order by a single worker; an
// update completes once the remote acknowledged the change and the local cache was
// updated. If all attempts fail the cache is left unchanged and the error is
// passed to the completion callback.
func NewRemoteStore(registry *entity.Registry, forwarder IForwarder, opts Options) store.IPartialBackend {
	defaults := DefaultOptions()
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaults.Backoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}

	s := &storeImpl{
		registry:  registry,
		forwarder: forwarder,
		opts:      opts,
		queue:     util.NewQueue[job](),
		stopped:   make(chan struct{}),
	}
	s.Backend = cache.NewBackend("remote", s)
	go s.run()
	return s
}

// --------------------------------------------------------------------------
// Forwarding
// --------------------------------------------------------------------------

// run forwards all queued change sets until the queue is closed and drained
func (s *storeImpl) run() {
	defer close(s.stopped)

	for j := range s.queue.Recv() {
		err := s.forward(j.cs)
		if err == nil {
			err = s.Apply(j.cs.Modified, j.cs.Deleted)
		}
		j.done(err)
	}
}

// forward sends a change set to the remote authority, retrying with exponential backoff
func (s *storeImpl) forward(cs store.ChangeSet) error {
	cs = withoutTransient(cs)
	if cs.IsEmpty() {
		return nil
	}

	backoff := s.opts.Backoff
	var err error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			log.Warningf("forwarding change set failed (attempt %d/%d), retrying in %s: %v",
				attempt, s.opts.Retries+1, backoff, err)
			time.Sleep(backoff)
			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
		err = s.forwarder.Forward(ctx, cs)
		cancel()

		if err == nil || !retryable(err) {
			break
		}
	}

	if err != nil {
		log.Errorf("forwarding change set (%s) failed: %v", cs.Description, err)
		var storeErr *store.Error
		if !errors.As(err, &storeErr) {
			err = store.WrapError(store.RetCInternalError, err, "forwarding change set")
		}
	}
	return err
}

// retryable returns true for transport and internal errors.
// Errors the remote rejected for a reason (e.g. an invalid operation) will fail again.
func retryable(err error) bool {
	return store.CodeOf(err) == store.RetCInternalError
}

// withoutTransient removes transient entities from the modified list
func withoutTransient(cs store.ChangeSet) store.ChangeSet {
	modified := make([]entity.Entity, 0, len(cs.Modified))
	for _, e := range cs.Modified {
		if !entity.IsTransient(e) {
			modified = append(modified, e)
		}
	}
	cs.Modified = modified
	return cs
}

// --------------------------------------------------------------------------
// Interface Methods (docu see cache.IUpdateHandler)
// --------------------------------------------------------------------------

func (s *storeImpl) OnUpdate(cs store.ChangeSet, done store.CompletionFunc) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()

	if s.closed {
		return store.NewError(store.RetCStoreLocked, "remote store is closed")
	}
	for _, e := range cs.Modified {
		if _, ok := s.registry.ByName(e.Type()); !ok {
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("entity type %s is not registered", e.Type()))
		}
	}
	if !s.queue.Push(&job{cs: cs, done: done}) {
		return store.NewError(store.RetCStoreLocked, "remote store is closed")
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IPartialBackend)
// --------------------------------------------------------------------------

func (s *storeImpl) UpdateFromServer(datas []map[string]string) ([]entity.Entity, error) {
	touched := make([]entity.Entity, 0, len(datas))
	seen := make(map[string]int, len(datas))

	for _, data := range datas {
		id := data[entity.KeyID]
		if id == "" {
			return touched, store.NewError(store.RetCInvalidOperation, "received entity data without id")
		}

		e, ok := s.Lookup(id)
		if typeTag := data[entity.KeyType]; typeTag != "" {
			info, known := s.registry.Lookup(typeTag)
			if !known {
				return touched, store.NewError(store.RetCInvalidOperation,
					fmt.Sprintf("received entity %s of unknown type %s", id, typeTag))
			}
			if ok && e.Type() != info.Name {
				// the authority changed the type, replace the cached entity
				ok = false
			}
			if !ok {
				e = info.Factory(id)
				s.Put(e)
			}
		} else if !ok {
			return touched, store.NewError(store.RetCInvalidOperation,
				fmt.Sprintf("received entity %s without type", id))
		}

		e.UpdateProperties(entity.StripReserved(data))

		if i, dup := seen[id]; dup {
			touched[i] = e
			continue
		}
		seen[id] = len(touched)
		touched = append(touched, e)
	}
	return touched, nil
}

func (s *storeImpl) OnEntityDeletionsReceived(ids []string) {
	s.RemoveAll(ids)
}

func (s *storeImpl) EnsureLoaded(ctx context.Context, ids ...string) error {
	var missing []string
	for _, id := range ids {
		if !s.ContainsWithID(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fetcher, ok := s.forwarder.(IFetcher)
	if !ok {
		return store.NewError(store.RetCUnsupportedOperation, "the forwarder of this store can not fetch entities")
	}
	datas, err := fetcher.Fetch(ctx, missing)
	if err != nil {
		return err
	}
	_, err = s.UpdateFromServer(datas)
	return err
}

func (s *storeImpl) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	s.queue.Close()
	s.closeMu.Unlock()

	<-s.stopped
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IBackend)
// --------------------------------------------------------------------------

func (s *storeImpl) LoadOutsourcedString(e entity.Entity, property string) (string, error) {
	remote, ok := s.forwarder.(IOutsourcedStrings)
	if !ok {
		return s.Backend.LoadOutsourcedString(e, property)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	return remote.LoadOutsourcedString(ctx, e.ID(), property)
}

func (s *storeImpl) SaveOutsourcedString(e entity.Entity, property, value string) error {
	remote, ok := s.forwarder.(IOutsourcedStrings)
	if !ok {
		return s.Backend.SaveOutsourcedString(e, property, value)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	return remote.SaveOutsourcedString(ctx, e.ID(), property, value)
}

func (s *storeImpl) IsPartial() bool {
	return true
}

func (s *storeImpl) Info() string {
	return fmt.Sprintf("remote store (%d cached entities, %d pending change sets)", s.Count(""), s.queue.Len())
}
