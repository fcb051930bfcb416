package entity

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/dEntity/lib/entity/serializer"
)

// Codec converts entities to and from serialized records.
// The alias of the entity type is embedded under KeyType so the
// type can be restored without any other information.
type Codec struct {
	Registry   *Registry
	Serializer serializer.IEntitySerializer
}

// NewCodec creates a codec. A nil serializer defaults to json.
func NewCodec(registry *Registry, s serializer.IEntitySerializer) *Codec {
	if s == nil {
		s = serializer.NewJSONSerializer()
	}
	return &Codec{Registry: registry, Serializer: s}
}

// Data returns the record form of e using the registered alias of its type
func (c *Codec) Data(e Entity) (map[string]string, error) {
	info, ok := c.Registry.ByName(e.Type())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, e.Type())
	}
	return ToData(e, info.Alias), nil
}

// FromData creates a new entity from its record form
func (c *Codec) FromData(data map[string]string) (Entity, error) {
	id := data[KeyID]
	if id == "" {
		return nil, fmt.Errorf("record without %s", KeyID)
	}
	e, err := c.Registry.Create(data[KeyType], id)
	if err != nil {
		return nil, err
	}
	e.UpdateProperties(StripReserved(data))
	return e, nil
}

// Serialize writes the record form of e to w
func (c *Codec) Serialize(w io.Writer, e Entity) error {
	data, err := c.Data(e)
	if err != nil {
		return err
	}
	return c.Serializer.Encode(w, data)
}

// Deserialize reads a single entity from r
func (c *Codec) Deserialize(r io.Reader) (Entity, error) {
	data, err := c.Serializer.Decode(r)
	if err != nil {
		return nil, err
	}
	return c.FromData(data)
}
