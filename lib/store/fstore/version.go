package fstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

const (
	// propertiesFile holds the metadata of the store, currently only the version
	propertiesFile = "store.properties"
	versionKey     = "version"
)

// propertiesPath returns the path of the metadata file
func (s *storeImpl) propertiesPath() string {
	return filepath.Join(s.dir, propertiesFile)
}

// storedVersion reads the version from the metadata file. ok is false if no version was stored yet.
func (s *storeImpl) storedVersion() (version int64, ok bool, err error) {
	data, err := afero.ReadFile(s.fs, s.propertiesPath())
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	props, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return 0, false, err
	}
	raw := strings.TrimSpace(props[versionKey])
	if raw == "" {
		return 0, false, nil
	}
	version, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q: %w", versionKey, raw, err)
	}
	return version, true, nil
}

// checkVersion fails if the stored version is newer than the configured one (caller holds s.mu)
func (s *storeImpl) checkVersion() error {
	if s.version > 0 {
		stored, ok, err := s.storedVersion()
		if err != nil {
			return store.WrapError(store.RetCInternalError, err, "reading %s", s.propertiesPath())
		}
		if ok && stored > s.version {
			return store.NewError(store.RetCIncompatibleStoreVersion,
				fmt.Sprintf("data in %s has version %d, this store only supports version %d", s.dir, stored, s.version))
		}
	}
	s.state.Store(int32(store.StateVersionChecked))
	return nil
}

// saveVersion writes the configured version to the metadata file (caller holds s.mu)
func (s *storeImpl) saveVersion() error {
	if s.State() == store.StateUnversioned {
		if err := s.checkVersion(); err != nil {
			return err
		}
	}

	if s.version > 0 {
		content, err := godotenv.Marshal(map[string]string{versionKey: strconv.FormatInt(s.version, 10)})
		if err != nil {
			return store.WrapError(store.RetCInternalError, err, "encoding store properties")
		}
		if err := s.replaceFile(s.propertiesPath(), []byte(content+"\n")); err != nil {
			return store.WrapError(store.RetCInternalError, err, "writing %s", s.propertiesPath())
		}
		log.Infof("store version %d saved to %s", s.version, s.propertiesPath())
	}

	s.state.Store(int32(store.StateRunning))
	return nil
}
