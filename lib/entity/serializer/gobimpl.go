package serializer

import (
	"encoding/gob"
	"io"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() IEntitySerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IEntitySerializer interface using gob encoding
type gobSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEntitySerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Name() string { return "gob" }

func (g gobSerializerImpl) Suffix() string { return ".gob" }

func (g gobSerializerImpl) Encode(w io.Writer, record map[string]string) error {
	return gob.NewEncoder(w).Encode(record)
}

func (g gobSerializerImpl) Decode(r io.Reader) (map[string]string, error) {
	record := map[string]string{}
	if err := gob.NewDecoder(r).Decode(&record); err != nil {
		return nil, err
	}
	return record, nil
}
