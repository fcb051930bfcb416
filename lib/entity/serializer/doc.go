// Package serializer provides the file formats used to store entity records.
//
// An entity record is the flat map[string]string form of an entity: the reserved
// keys "id" and "@type" plus one entry per property. The durable file backend writes
// exactly one record per file and uses the serializer's Suffix to recognize its files.
//
// Available formats:
//   - json: indented JSON object (default, human readable)
//   - gob: Go's gob encoding of the map
//   - binary: custom length prefixed format with sorted keys
//   - bson: a single BSON document (go.mongodb.org/mongo-driver)
//   - toml: a flat TOML table (github.com/BurntSushi/toml)
//   - yaml: a YAML mapping (gopkg.in/yaml.v3)
//
// All formats must round-trip arbitrary string keys and values, including empty
// values and keys that are not valid identifiers (such as "@type").
package serializer
