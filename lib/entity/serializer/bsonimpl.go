package serializer

import (
	"io"

	"go.mongodb.org/mongo-driver/bson"
)

// NewBSONSerializer creates a new serializer storing each record as a single BSON document
func NewBSONSerializer() IEntitySerializer {
	return &bsonSerializerImpl{}
}

type bsonSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEntitySerializer)
// --------------------------------------------------------------------------

func (b bsonSerializerImpl) Name() string { return "bson" }

func (b bsonSerializerImpl) Suffix() string { return ".bson" }

func (b bsonSerializerImpl) Encode(w io.Writer, record map[string]string) error {
	data, err := bson.Marshal(record)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (b bsonSerializerImpl) Decode(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	record := map[string]string{}
	if err := bson.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}
