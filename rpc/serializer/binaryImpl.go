package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dEntity/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: msgType (1 byte) | flags (2 bytes) | present fields in flag order.
// Strings are length prefixed (uint32), lists and maps carry a uint32 count.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasIDs         uint16 = 1 << 0
	hasEntities    uint16 = 1 << 1
	hasChanged     uint16 = 1 << 2
	hasTypeName    uint16 = 1 << 3
	hasProperty    uint16 = 1 << 4
	hasValue       uint16 = 1 << 5
	hasOk          uint16 = 1 << 6
	hasDescription uint16 = 1 << 7
	hasCode        uint16 = 1 << 8
	hasErr         uint16 = 1 << 9
)

const headerSize = 3

var errShortData = errors.New("data too short")

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, headerSize, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags uint16

	if msg.IDs != nil {
		flags |= hasIDs
		result = appendStrings(result, msg.IDs)
	}

	if msg.Entities != nil {
		flags |= hasEntities
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Entities)))
		for _, data := range msg.Entities {
			result = appendMap(result, data)
		}
	}

	if msg.Changed != nil {
		flags |= hasChanged
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Changed)))
		for id, props := range msg.Changed {
			result = appendString(result, id)
			result = appendStrings(result, props)
		}
	}

	if msg.TypeName != "" {
		flags |= hasTypeName
		result = appendString(result, msg.TypeName)
	}

	if msg.Property != "" {
		flags |= hasProperty
		result = appendString(result, msg.Property)
	}

	if msg.Value != "" {
		flags |= hasValue
		result = appendString(result, msg.Value)
	}

	if msg.Ok {
		flags |= hasOk
	}

	if msg.Description != "" {
		flags |= hasDescription
		result = appendString(result, msg.Description)
	}

	if msg.Code != 0 {
		flags |= hasCode
		result = binary.BigEndian.AppendUint64(result, msg.Code)
	}

	if msg.Err != "" {
		flags |= hasErr
		result = appendString(result, msg.Err)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:headerSize], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := binary.BigEndian.Uint16(data[1:headerSize])
	r := &reader{data: data, pos: headerSize}

	if flags&hasIDs != 0 {
		msg.IDs = r.strings()
	}

	if flags&hasEntities != 0 {
		n := r.count()
		msg.Entities = make([]map[string]string, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			msg.Entities = append(msg.Entities, r.stringMap())
		}
	}

	if flags&hasChanged != 0 {
		n := r.count()
		msg.Changed = make(map[string][]string, n)
		for i := 0; i < n && r.err == nil; i++ {
			id := r.string()
			msg.Changed[id] = r.strings()
		}
	}

	if flags&hasTypeName != 0 {
		msg.TypeName = r.string()
	}

	if flags&hasProperty != 0 {
		msg.Property = r.string()
	}

	if flags&hasValue != 0 {
		msg.Value = r.string()
	}

	msg.Ok = flags&hasOk != 0

	if flags&hasDescription != 0 {
		msg.Description = r.string()
	}

	if flags&hasCode != 0 {
		msg.Code = r.uint64()
	}

	if flags&hasErr != 0 {
		msg.Err = r.string()
	}

	if r.err != nil {
		return fmt.Errorf("failed to decode %s message: %w", msg.MsgType, r.err)
	}
	if r.pos != len(data) {
		return fmt.Errorf("failed to decode %s message: %d trailing bytes", msg.MsgType, len(data)-r.pos)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes estimates the encoded size of msg, used to preallocate the buffer
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	if msg.IDs != nil {
		size += stringsSize(msg.IDs)
	}
	if msg.Entities != nil {
		size += 4
		for _, data := range msg.Entities {
			size += 4
			for k, v := range data {
				size += 8 + len(k) + len(v)
			}
		}
	}
	if msg.Changed != nil {
		size += 4
		for id, props := range msg.Changed {
			size += 4 + len(id) + stringsSize(props)
		}
	}
	size += 4 + len(msg.TypeName)
	size += 4 + len(msg.Property)
	size += 4 + len(msg.Value)
	size += 4 + len(msg.Description)
	size += 8
	size += 4 + len(msg.Err)

	return size
}

func stringsSize(list []string) int {
	size := 4
	for _, s := range list {
		size += 4 + len(s)
	}
	return size
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

func appendStrings(b []byte, list []string) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(list)))
	for _, s := range list {
		b = appendString(b, s)
	}
	return b
}

func appendMap(b []byte, m map[string]string) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(m)))
	for k, v := range m {
		b = appendString(b, k)
		b = appendString(b, v)
	}
	return b
}

// reader decodes the primitive values of the binary format.
// After the first error every read returns the zero value.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.pos < n {
		r.err = errShortData
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// count reads a uint32 length and checks that it can be satisfied by the remaining data
func (r *reader) count() int {
	b := r.take(4)
	if b == nil {
		return 0
	}
	n := int(binary.BigEndian.Uint32(b))
	// every element takes at least 4 bytes
	if n > (len(r.data)-r.pos)/4 {
		r.err = errShortData
		return 0
	}
	return n
}

func (r *reader) string() string {
	b := r.take(4)
	if b == nil {
		return ""
	}
	return string(r.take(int(binary.BigEndian.Uint32(b))))
}

func (r *reader) strings() []string {
	n := r.count()
	list := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		list = append(list, r.string())
	}
	return list
}

func (r *reader) stringMap() map[string]string {
	n := r.count()
	m := make(map[string]string, n)
	for i := 0; i < n && r.err == nil; i++ {
		k := r.string()
		m[k] = r.string()
	}
	return m
}
