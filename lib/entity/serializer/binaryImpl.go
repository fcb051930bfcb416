package serializer

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and small files
func NewBinarySerializer() IEntitySerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IEntitySerializer using the following layout:
//
//   - 1 byte: format version
//   - 4 bytes: number of entries (uint32, big endian)
//   - per entry: 4 bytes key length, key, 4 bytes value length, value
//
// Entries are written in key order so equal records produce equal files.
type binarySerializerImpl struct{}

const binaryFormatVersion byte = 1

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEntitySerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Name() string { return "binary" }

func (b binarySerializerImpl) Suffix() string { return ".bin" }

func (b binarySerializerImpl) Encode(w io.Writer, record map[string]string) error {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Calculate total size needed
	totalSize := 1 + 4
	for _, k := range keys {
		totalSize += 4 + len(k) + 4 + len(record[k])
	}
	result := make([]byte, totalSize)

	result[0] = binaryFormatVersion
	binary.BigEndian.PutUint32(result[1:5], uint32(len(keys)))
	pos := 5

	for _, k := range keys {
		pos = putString(result, pos, k)
		pos = putString(result, pos, record[k])
	}

	_, err := w.Write(result)
	return err
}

func (b binarySerializerImpl) Decode(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// Check minimum length for version and count
	if len(data) < 5 {
		return nil, fmt.Errorf("data too short for binary record")
	}
	if data[0] != binaryFormatVersion {
		return nil, fmt.Errorf("unsupported binary record version %d", data[0])
	}

	count := binary.BigEndian.Uint32(data[1:5])
	pos := 5
	record := make(map[string]string, count)

	for i := uint32(0); i < count; i++ {
		var key, value string
		if key, pos, err = getString(data, pos); err != nil {
			return nil, fmt.Errorf("entry %d key: %w", i, err)
		}
		if value, pos, err = getString(data, pos); err != nil {
			return nil, fmt.Errorf("entry %d value: %w", i, err)
		}
		record[key] = value
	}

	if pos != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after binary record", len(data)-pos)
	}
	return record, nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// putString writes a length prefixed string at pos and returns the new position
func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(buf[pos:pos+len(s)], s)
	return pos + len(s)
}

// getString reads a length prefixed string at pos and returns it with the new position
func getString(data []byte, pos int) (string, int, error) {
	if pos+4 > len(data) {
		return "", pos, fmt.Errorf("data too short for length")
	}
	l := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if pos+l > len(data) {
		return "", pos, fmt.Errorf("data too short for string of length %d", l)
	}
	return string(data[pos : pos+l]), pos + l, nil
}
