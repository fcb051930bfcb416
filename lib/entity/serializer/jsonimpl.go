package serializer

import (
	"encoding/json"
	"io"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IEntitySerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IEntitySerializer interface using json encoding
type jsonSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEntitySerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Name() string { return "json" }

func (j jsonSerializerImpl) Suffix() string { return ".json" }

func (j jsonSerializerImpl) Encode(w io.Writer, record map[string]string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

func (j jsonSerializerImpl) Decode(r io.Reader) (map[string]string, error) {
	record := map[string]string{}
	if err := json.NewDecoder(r).Decode(&record); err != nil {
		return nil, err
	}
	return record, nil
}
