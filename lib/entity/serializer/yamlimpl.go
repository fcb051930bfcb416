package serializer

import (
	"io"

	"gopkg.in/yaml.v3"
)

// NewYAMLSerializer creates a new serializer writing records as YAML mappings
func NewYAMLSerializer() IEntitySerializer {
	return &yamlSerializerImpl{}
}

type yamlSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEntitySerializer)
// --------------------------------------------------------------------------

func (y yamlSerializerImpl) Name() string { return "yaml" }

func (y yamlSerializerImpl) Suffix() string { return ".yaml" }

func (y yamlSerializerImpl) Encode(w io.Writer, record map[string]string) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(record); err != nil {
		return err
	}
	return enc.Close()
}

func (y yamlSerializerImpl) Decode(r io.Reader) (map[string]string, error) {
	record := map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&record); err != nil {
		return nil, err
	}
	return record, nil
}
