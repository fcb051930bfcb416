package serializer

import (
	"testing"

	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/google/go-cmp/cmp"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Update request
		{
			MsgType: common.MsgTUpdate,
			Entities: []map[string]string{
				{"id": "u1", "@type": "User", "name": "Ann"},
				{"id": "p1", "@type": "proj", "title": "dEntity", "owner": "u1"},
			},
			IDs:     []string{"u2", "u3"},
			Changed: map[string][]string{"u1": {"name"}},
		},

		// Find request
		{
			MsgType:  common.MsgTFind,
			TypeName: "User",
			Property: "name",
			Value:    "Ann",
		},

		// Load outsourced response
		{
			MsgType: common.MsgTLoadOutsourced,
			Value:   "a very long text\nwith line breaks",
			Ok:      true,
		},

		// Info response
		{
			MsgType:     common.MsgTInfo,
			Description: "file store (version 3, 12 entities)",
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Code:    4,
			Err:     "entity u1 not found",
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if diff := cmp.Diff(msg, result); diff != "" {
					t.Errorf("Message %d doesn't match after round trip (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTInfo; msgType++ {
				msg := common.Message{MsgType: msgType}

				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType, err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s", msgType, result.MsgType)
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests edge cases the binary format has to preserve
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Empty but not nil lists",
			msg: common.Message{
				MsgType:  common.MsgTUpdate,
				IDs:      []string{},
				Entities: []map[string]string{},
				Changed:  map[string][]string{},
			},
		},
		{
			name: "Entity with empty values",
			msg: common.Message{
				MsgType:  common.MsgTGet,
				Entities: []map[string]string{{"id": "u1", "@type": "User", "name": ""}},
			},
		},
		{
			name: "Ok without value",
			msg: common.Message{
				MsgType: common.MsgTLoadOutsourced,
				Ok:      true,
			},
		},
		{
			name: "Unicode strings",
			msg: common.Message{
				MsgType:  common.MsgTSaveOutsourced,
				IDs:      []string{"ü-1"},
				Property: "bio",
				Value:    "Grüße 👋",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if diff := cmp.Diff(tc.msg, result); diff != "" {
				t.Errorf("Message mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0}, // Message type and half of the flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for type name",
			data:        []byte{5, 0, 8, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid count for ids",
			data:        []byte{4, 0, 1, 0xff, 0xff, 0xff, 0xff}, // Claims 2^32-1 ids
			expectError: true,
		},
		{
			name:        "Missing code",
			data:        []byte{2, 1, 0, 0, 0, 0}, // Code flag set but only 4 bytes
			expectError: true,
		},
		{
			name:        "Trailing bytes",
			data:        []byte{1, 0, 0, 42},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"binary", "JSON", "gob", ""} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q) failed: %v", name, err)
		}
	}
	if _, err := ByName("protobuf"); err == nil {
		t.Error("expected error for unknown serializer")
	}
}
