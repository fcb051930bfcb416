package fstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/spf13/afero"
)

func (s *storeImpl) Load(typeName string, deleteOnFailure bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == store.StateUnversioned {
		if err := s.checkVersion(); err != nil {
			return err
		}
	}

	info, ok := s.registry.Lookup(typeName)
	if !ok {
		return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("entity type %s is not registered", typeName))
	}
	s.Declare(info.Name)

	dir := s.typeDir(info)
	files, err := afero.ReadDir(s.fs, dir)
	if os.IsNotExist(err) {
		log.Infof("no entity files of type %s", info.Alias)
		return nil
	}
	if err != nil {
		return store.WrapError(store.RetCInternalError, err, "listing %s", dir)
	}

	log.Infof("loading %d entity files: %s", len(files), info.Alias)
	suffix := s.codec.Serializer.Suffix()
	loaded := 0

	for _, fi := range files {
		if fi.IsDir() {
			continue
		}
		path := filepath.Join(dir, fi.Name())
		if !strings.HasSuffix(fi.Name(), suffix) {
			log.Warningf("unsupported file, skipping: %s", path)
			continue
		}

		if err := s.loadFile(path, info); err != nil {
			if !deleteOnFailure {
				return store.WrapError(store.RetCCorruptEntityFile, err, "loading entity file %s", path)
			}
			log.Warningf("loading entity file %s failed, deleting it: %v", path, err)
			if rmErr := s.fs.Remove(path); rmErr != nil {
				log.Errorf("failed to delete corrupt entity file %s: %v", path, rmErr)
			}
			continue
		}
		loaded++
	}

	log.Debugf("loaded %d entities of type %s", loaded, info.Name)
	return nil
}

// loadFile reads a single entity file and adds the entity to the index
func (s *storeImpl) loadFile(path string, info entity.TypeInfo) error {
	if s.preparator != nil {
		if err := s.preparator(s.fs, path, info); err != nil {
			return fmt.Errorf("preparing file: %w", err)
		}
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	e, err := s.codec.Deserialize(bufio.NewReader(f))
	if err != nil {
		return err
	}
	if e.Type() != info.Name {
		return fmt.Errorf("file contains entity of type %s, expected %s", e.Type(), info.Name)
	}
	if want := strings.TrimSuffix(filepath.Base(path), s.codec.Serializer.Suffix()); e.ID() != want {
		return fmt.Errorf("file contains entity %s, expected %s", e.ID(), want)
	}
	return s.Add(e)
}
