package fstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/store"
)

// operation is a two phase unit of work derived from a change set.
// All operations of an update are prepared before any of them is completed.
type operation interface {
	// prepare does all fallible work that leaves the final files untouched
	prepare() error
	// complete makes the change visible on disk and in the index
	complete() error
	// abort undoes prepare, it is called for prepared operations of a failed update
	abort()
	String() string
}

// --------------------------------------------------------------------------
// Save
// --------------------------------------------------------------------------

// saveOp writes an entity to <final>.tmp and renames it on complete
type saveOp struct {
	s      *storeImpl
	entity entity.Entity
	path   string // final path, set by prepare
	tmp    string // staged path, set by prepare
}

func (o *saveOp) prepare() error {
	info, err := o.s.checkSave(o.entity)
	if err != nil {
		return err
	}

	o.path = o.s.entityPath(info, o.entity.ID())
	o.tmp = o.path + tmpSuffix

	if err := o.s.writeFile(o.tmp, func(w *bufio.Writer) error {
		return o.s.codec.Serialize(w, o.entity)
	}); err != nil {
		return store.WrapError(store.RetCInternalError, err, "writing %s", o.tmp)
	}

	// make sure the serializer actually produced something
	fi, err := o.s.fs.Stat(o.tmp)
	if err != nil || fi.Size() == 0 {
		return store.WrapError(store.RetCSerializationFailure, err, "staged file %s is missing or empty", o.tmp)
	}
	return nil
}

func (o *saveOp) complete() error {
	if err := o.s.fs.Rename(o.tmp, o.path); err != nil {
		return store.WrapError(store.RetCInternalError, err, "renaming %s", o.tmp)
	}
	return o.s.Add(o.entity)
}

func (o *saveOp) abort() {
	if o.tmp == "" {
		return
	}
	if err := o.s.fs.Remove(o.tmp); err != nil && !os.IsNotExist(err) {
		log.Warningf("failed to remove staged file %s: %v", o.tmp, err)
	}
}

func (o *saveOp) String() string {
	return fmt.Sprintf("save %s %s", o.entity.Type(), o.entity.ID())
}

// checkSave validates an entity before it is saved and returns its type
func (s *storeImpl) checkSave(e entity.Entity) (entity.TypeInfo, error) {
	info, err := s.typeInfo(e)
	if err != nil {
		return info, err
	}
	if err := checkNames(e.ID()); err != nil {
		return info, err
	}
	if owner, ok := s.Lookup(e.ID()); ok && owner.Type() != e.Type() {
		return info, store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("id %s is already used by an entity of type %s", e.ID(), owner.Type()))
	}
	return info, nil
}

// --------------------------------------------------------------------------
// Transient
// --------------------------------------------------------------------------

// transientOp puts a transient entity into the index without writing a file
type transientOp struct {
	s      *storeImpl
	entity entity.Entity
}

func (o *transientOp) prepare() error {
	_, err := o.s.checkSave(o.entity)
	return err
}

func (o *transientOp) complete() error {
	return o.s.Add(o.entity)
}

func (o *transientOp) abort() {}

func (o *transientOp) String() string {
	return fmt.Sprintf("keep transient %s %s", o.entity.Type(), o.entity.ID())
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// deleteOp removes the entity file, its outsourced strings and the index entry
type deleteOp struct {
	s          *storeImpl
	entity     entity.Entity
	path       string // set by prepare
	outsourced string // set by prepare
}

func (o *deleteOp) prepare() error {
	info, err := o.s.typeInfo(o.entity)
	if err != nil {
		return err
	}
	o.path = o.s.entityPath(info, o.entity.ID())
	o.outsourced = o.s.outsourcedEntityDir(info, o.entity.ID())
	return nil
}

func (o *deleteOp) complete() error {
	var err error
	if rmErr := o.s.fs.Remove(o.path); rmErr != nil && !os.IsNotExist(rmErr) {
		err = store.WrapError(store.RetCInternalError, rmErr, "deleting %s", o.path)
	}
	if rmErr := o.s.fs.RemoveAll(o.outsourced); rmErr != nil {
		log.Warningf("failed to delete outsourced strings of %s: %v", o.entity.ID(), rmErr)
	}
	o.s.Remove(o.entity.ID())
	return err
}

func (o *deleteOp) abort() {}

func (o *deleteOp) String() string {
	return fmt.Sprintf("delete %s %s", o.entity.Type(), o.entity.ID())
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// writeFile creates path (and its parent directories) and fills it through a buffered writer
func (s *storeImpl) writeFile(path string, fill func(w *bufio.Writer) error) (err error) {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := s.fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		return err
	}
	return w.Flush()
}

// replaceFile writes path atomically by staging the content at path+".tmp"
func (s *storeImpl) replaceFile(path string, content []byte) error {
	tmp := path + tmpSuffix
	if err := s.writeFile(tmp, func(w *bufio.Writer) error {
		_, err := w.Write(content)
		return err
	}); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return s.fs.Rename(tmp, path)
}
