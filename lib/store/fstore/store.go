package fstore

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/entity/serializer"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/lib/store/cache"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

var log = logger.GetLogger("store")

const (
	// tmpSuffix is appended to the final path of a file while it is staged
	tmpSuffix = ".tmp"
	// outsourcedDir is the directory below the root holding outsourced strings
	outsourcedDir = "_outsourced"
	// outsourcedSuffix is the file suffix of outsourced strings
	outsourcedSuffix = ".txt"
)

// Preparator is called with the path of every entity file before it is
// deserialized. It may rewrite the file in place (e.g. to migrate old formats).
type Preparator func(fs afero.Fs, path string, info entity.TypeInfo) error

// Options configures a file store
type Options struct {
	Dir        string                       // Root directory of the store
	Version    int64                        // Version of the data layout, <= 0 disables version checks
	Fs         afero.Fs                     // File system to use (default: OS file system)
	Serializer serializer.IEntitySerializer // Format of the entity files (default: json)
	Preparator Preparator                   // Optional hook run before an entity file is read
}

type storeImpl struct {
	*cache.Backend
	registry   *entity.Registry
	codec      *entity.Codec
	fs         afero.Fs
	dir        string
	version    int64
	preparator Preparator

	mu    sync.Mutex // serializes updates, loads and the lock transition
	state atomic.Int32
}

// NewFileStore creates a new durable backend that stores every entity in its own file.
// Only types known to the registry can be saved. Nothing is read from disk until
// Load or LoadAll is called.
func NewFileStore(registry *entity.Registry, opts Options) store.IDurableBackend {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Serializer == nil {
		opts.Serializer = serializer.NewJSONSerializer()
	}
	s := &storeImpl{
		registry:   registry,
		codec:      entity.NewCodec(registry, opts.Serializer),
		fs:         opts.Fs,
		dir:        opts.Dir,
		version:    opts.Version,
		preparator: opts.Preparator,
	}
	s.Backend = cache.NewBackend("file", s)
	return s
}

// --------------------------------------------------------------------------
// Paths
// --------------------------------------------------------------------------

// typeDir returns the directory holding all entity files of a type
func (s *storeImpl) typeDir(info entity.TypeInfo) string {
	return filepath.Join(s.dir, info.Dir())
}

// entityPath returns the final path of the entity file
func (s *storeImpl) entityPath(info entity.TypeInfo, id string) string {
	return filepath.Join(s.typeDir(info), id+s.codec.Serializer.Suffix())
}

// outsourcedPath returns the path of an outsourced property
func (s *storeImpl) outsourcedPath(info entity.TypeInfo, id, property string) string {
	return filepath.Join(s.outsourcedEntityDir(info, id), property+outsourcedSuffix)
}

// outsourcedEntityDir returns the directory holding all outsourced properties of an entity
func (s *storeImpl) outsourcedEntityDir(info entity.TypeInfo, id string) string {
	return filepath.Join(s.dir, outsourcedDir, info.Dir(), id)
}

// checkNames fails with InvalidOperation if the id or a property name can
// not be used as a single path element below the store root
func checkNames(id string, properties ...string) error {
	if err := entity.ValidID(id); err != nil {
		return store.WrapError(store.RetCInvalidOperation, err, "cannot store entity")
	}
	for _, property := range properties {
		if err := entity.ValidPropertyName(property); err != nil {
			return store.WrapError(store.RetCInvalidOperation, err, "cannot store property of %s", id)
		}
	}
	return nil
}

// typeInfo resolves the registered type of an entity
func (s *storeImpl) typeInfo(e entity.Entity) (entity.TypeInfo, error) {
	info, ok := s.registry.ByName(e.Type())
	if !ok {
		return info, store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("entity type %s is not registered", e.Type()))
	}
	return info, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see cache.IUpdateHandler)
// --------------------------------------------------------------------------

func (s *storeImpl) OnUpdate(cs store.ChangeSet, done store.CompletionFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == store.StateLocked {
		return store.NewError(store.RetCStoreLocked, "can not persist entity changes, store already locked")
	}
	if s.State() != store.StateRunning {
		if err := s.saveVersion(); err != nil {
			return err
		}
	}

	ops := s.operations(cs)

	// prepare all operations, nothing is visible before all of them succeeded
	for i, op := range ops {
		if err := op.prepare(); err != nil {
			for _, prepared := range ops[:i+1] {
				prepared.abort()
			}
			return err
		}
	}

	// complete all operations, failures do not stop the remaining ones
	var errs error
	for _, op := range ops {
		errs = multierr.Append(errs, op.complete())
	}

	if len(ops) > 0 {
		var sb strings.Builder
		for _, op := range ops {
			sb.WriteString("\n    ")
			sb.WriteString(op.String())
		}
		log.Debugf("entity changes persisted (%s):%s", cs.Description, sb.String())
	}

	if errs != nil {
		return store.WrapError(store.RetCInternalError, errs, "completing %d entity changes", len(ops))
	}
	done(nil)
	return nil
}

// operations builds the operations of a change set: one save per modified
// entity (index only for transient ones), then one delete per held deleted id
func (s *storeImpl) operations(cs store.ChangeSet) []operation {
	ops := make([]operation, 0, len(cs.Modified)+len(cs.Deleted))
	for _, e := range cs.Modified {
		if entity.IsTransient(e) {
			ops = append(ops, &transientOp{s: s, entity: e})
			continue
		}
		ops = append(ops, &saveOp{s: s, entity: e})
	}
	for _, id := range cs.Deleted {
		e, ok := s.Lookup(id)
		if !ok {
			continue
		}
		ops = append(ops, &deleteOp{s: s, entity: e})
	}
	return ops
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IDurableBackend)
// --------------------------------------------------------------------------

func (s *storeImpl) LoadAll(deleteOnFailure bool) error {
	for _, info := range s.registry.Types() {
		if err := s.Load(info.Name, deleteOnFailure); err != nil {
			return err
		}
	}
	return nil
}

func (s *storeImpl) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == store.StateLocked {
		return
	}
	s.state.Store(int32(store.StateLocked))
	log.Infof("file entity store %s locked", s.dir)
}

func (s *storeImpl) IsLocked() bool {
	return s.State() == store.StateLocked
}

func (s *storeImpl) State() store.State {
	return store.State(s.state.Load())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IBackend)
// --------------------------------------------------------------------------

func (s *storeImpl) Info() string {
	return fmt.Sprintf("file store at %s (format %s, version %d, state %s, %d entities, types %v)",
		s.dir, s.codec.Serializer.Name(), s.version, s.State(), s.Count(""), s.Types())
}
