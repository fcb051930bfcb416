package serializer

import (
	"io"

	"github.com/BurntSushi/toml"
)

// NewTOMLSerializer creates a new serializer writing records as flat TOML tables
func NewTOMLSerializer() IEntitySerializer {
	return &tomlSerializerImpl{}
}

type tomlSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEntitySerializer)
// --------------------------------------------------------------------------

func (t tomlSerializerImpl) Name() string { return "toml" }

func (t tomlSerializerImpl) Suffix() string { return ".toml" }

func (t tomlSerializerImpl) Encode(w io.Writer, record map[string]string) error {
	return toml.NewEncoder(w).Encode(record)
}

func (t tomlSerializerImpl) Decode(r io.Reader) (map[string]string, error) {
	record := map[string]string{}
	if _, err := toml.NewDecoder(r).Decode(&record); err != nil {
		return nil, err
	}
	return record, nil
}
