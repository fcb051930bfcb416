package serializer

import (
	"fmt"
	"io"
)

// IEntitySerializer is the interface for all entity record formats.
// A record is the flat string map form of an entity (see entity.Codec).
type IEntitySerializer interface {
	// Name returns the name of the format (e.g. "json")
	Name() string
	// Suffix returns the file name suffix used for records in this format, including the dot
	Suffix() string
	// Encode writes the record to w
	Encode(w io.Writer, record map[string]string) error
	// Decode reads a single record from r
	Decode(r io.Reader) (map[string]string, error)
}

// Names lists all formats known to ByName
var Names = []string{"json", "gob", "binary", "bson", "toml", "yaml"}

// ByName creates a serializer for the given format name
func ByName(name string) (IEntitySerializer, error) {
	switch name {
	case "json", "":
		return NewJSONSerializer(), nil
	case "gob":
		return NewGOBSerializer(), nil
	case "binary":
		return NewBinarySerializer(), nil
	case "bson":
		return NewBSONSerializer(), nil
	case "toml":
		return NewTOMLSerializer(), nil
	case "yaml":
		return NewYAMLSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid entity format %s", name)
	}
}
