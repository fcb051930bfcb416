package serializer

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testRecords creates a set of records with different shapes
func testRecords() []map[string]string {
	return []map[string]string{
		// Minimal record
		{"id": "u1", "@type": "User"},

		// Typical record
		{"id": "u2", "@type": "User", "name": "Ann", "email": "ann@example.com"},

		// Empty values and numbers as strings
		{"id": "p1", "@type": "Project", "description": "", "budget": "123", "active": "true"},

		// Special characters
		{"id": "n1", "@type": "Note", "text": "line1\nline2\t\"quoted\" ümlaut", "key with spaces": "x"},
	}
}

// TestSerializerRoundTrip tests that records can be encoded and decoded correctly
func TestSerializerRoundTrip(t *testing.T) {
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			s, err := ByName(name)
			if err != nil {
				t.Fatalf("ByName(%q) failed: %v", name, err)
			}

			for i, record := range testRecords() {
				var buf bytes.Buffer
				if err := s.Encode(&buf, record); err != nil {
					t.Errorf("Failed to encode record %d: %v", i, err)
					continue
				}
				if buf.Len() == 0 {
					t.Errorf("Encoding record %d produced no data", i)
					continue
				}

				result, err := s.Decode(&buf)
				if err != nil {
					t.Errorf("Failed to decode record %d: %v", i, err)
					continue
				}

				if diff := cmp.Diff(record, result); diff != "" {
					t.Errorf("Record %d doesn't match after round trip (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

// TestSuffixes checks that every format has a distinct file suffix
func TestSuffixes(t *testing.T) {
	seen := map[string]string{}
	for _, name := range Names {
		s, _ := ByName(name)
		if s.Name() != name {
			t.Errorf("Expected name %s, got %s", name, s.Name())
		}
		suffix := s.Suffix()
		if len(suffix) < 2 || suffix[0] != '.' {
			t.Errorf("Invalid suffix %q for %s", suffix, name)
		}
		if other, ok := seen[suffix]; ok {
			t.Errorf("Suffix %s used by %s and %s", suffix, name, other)
		}
		seen[suffix] = name
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("xml"); err == nil {
		t.Errorf("Expected error for unknown format")
	}
}

// TestBinarySerializerCorruptData tests that truncated input is rejected
func TestBinarySerializerCorruptData(t *testing.T) {
	s := NewBinarySerializer()

	var buf bytes.Buffer
	if err := s.Encode(&buf, map[string]string{"id": "x", "@type": "T"}); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	data := buf.Bytes()

	testCases := []struct {
		name string
		data []byte
	}{
		{"Empty", []byte{}},
		{"Only version", data[:1]},
		{"Truncated", data[:len(data)-1]},
		{"Trailing bytes", append(append([]byte{}, data...), 0)},
		{"Wrong version", append([]byte{99}, data[1:]...)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Decode(bytes.NewReader(tc.data)); err == nil {
				t.Errorf("Expected decode error")
			}
		})
	}
}
