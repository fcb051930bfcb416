package fstore

import (
	"os"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/spf13/afero"
)

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IBackend)
// --------------------------------------------------------------------------

func (s *storeImpl) LoadOutsourcedString(e entity.Entity, property string) (string, error) {
	info, err := s.typeInfo(e)
	if err != nil {
		return "", err
	}
	if err := checkNames(e.ID(), property); err != nil {
		return "", err
	}
	path := s.outsourcedPath(info, e.ID(), property)
	data, err := afero.ReadFile(s.fs, path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", store.WrapError(store.RetCInternalError, err, "reading %s", path)
	}
	return string(data), nil
}

func (s *storeImpl) SaveOutsourcedString(e entity.Entity, property, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == store.StateLocked {
		return store.NewError(store.RetCStoreLocked, "can not save outsourced string, store already locked")
	}
	info, err := s.typeInfo(e)
	if err != nil {
		return err
	}
	if err := checkNames(e.ID(), property); err != nil {
		return err
	}
	path := s.outsourcedPath(info, e.ID(), property)
	if err := s.replaceFile(path, []byte(value)); err != nil {
		return store.WrapError(store.RetCInternalError, err, "writing %s", path)
	}
	return nil
}
