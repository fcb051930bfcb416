package entity

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ValentinKolb/dEntity/lib/entity/serializer"
	"github.com/google/go-cmp/cmp"
)

func TestRecord(t *testing.T) {
	r := NewRecord("User", "u1").Set("name", "Ann").Set(KeyID, "ignored")

	if r.ID() != "u1" || r.Type() != "User" {
		t.Fatalf("Unexpected identity %s/%s", r.ID(), r.Type())
	}

	// Properties returns a copy
	props := r.Properties()
	props["name"] = "changed"
	if v, _ := r.Get("name"); v != "Ann" {
		t.Errorf("Expected name Ann, got %s", v)
	}

	r.UpdateProperties(map[string]string{"email": "ann@example.com", KeyType: "Other"})
	want := map[string]string{"name": "Ann", "email": "ann@example.com"}
	if diff := cmp.Diff(want, r.Properties()); diff != "" {
		t.Errorf("Properties mismatch (-want +got):\n%s", diff)
	}

	r.Unset("email")
	if _, ok := r.Get("email"); ok {
		t.Errorf("Expected email to be unset")
	}

	if IsTransient(r) {
		t.Errorf("New record must not be transient")
	}
	r.SetTransient(true)
	if !IsTransient(r) {
		t.Errorf("Expected record to be transient")
	}
}

func TestNewRecordGeneratesID(t *testing.T) {
	a, b := NewRecord("User", ""), NewRecord("User", "")
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("Expected distinct generated ids, got %q and %q", a.ID(), b.ID())
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("User", "User", nil)
	reg.MustRegister("Project", "proj", nil)

	testCases := []struct {
		name     string
		lookup   string
		wantName string
		wantOk   bool
	}{
		{"Type name", "User", "User", true},
		{"Alias", "proj", "Project", true},
		{"Lowercase alias", "user", "User", true},
		{"Unknown", "Task", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info, ok := reg.Lookup(tc.lookup)
			if ok != tc.wantOk {
				t.Fatalf("Expected ok=%v, got %v", tc.wantOk, ok)
			}
			if ok && info.Name != tc.wantName {
				t.Errorf("Expected %s, got %s", tc.wantName, info.Name)
			}
		})
	}

	if info, _ := reg.ByName("User"); info.Dir() != "user" {
		t.Errorf("Expected dir user, got %s", info.Dir())
	}

	// Registering the same type again is fine
	if err := reg.Register("User", "User", nil); err != nil {
		t.Errorf("Re-registering failed: %v", err)
	}

	// An alias can only be used once
	if err := reg.Register("Task", "proj", nil); !errors.Is(err, ErrAliasTaken) {
		t.Errorf("Expected ErrAliasTaken, got %v", err)
	}

	e, err := reg.Create("proj", "p1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if e.Type() != "Project" || e.ID() != "p1" {
		t.Errorf("Unexpected entity %s/%s", e.Type(), e.ID())
	}

	if _, err := reg.Create("Task", "t1"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}

	if n := len(reg.Types()); n != 2 {
		t.Errorf("Expected 2 types, got %d", n)
	}
}

func TestParseTypeList(t *testing.T) {
	reg, err := ParseTypeList("User, Project=proj,,")
	if err != nil {
		t.Fatalf("ParseTypeList failed: %v", err)
	}
	types := reg.Types()
	if len(types) != 2 {
		t.Fatalf("Expected 2 types, got %d", len(types))
	}
	if types[0].Name != "Project" || types[0].Alias != "proj" {
		t.Errorf("Unexpected type %+v", types[0])
	}
	if types[1].Name != "User" || types[1].Alias != "User" {
		t.Errorf("Unexpected type %+v", types[1])
	}

	if _, err := ParseTypeList("A=x,B=x"); err == nil {
		t.Errorf("Expected error for duplicate alias")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("User", "usr", nil)

	for _, name := range serializer.Names {
		t.Run(name, func(t *testing.T) {
			s, _ := serializer.ByName(name)
			codec := NewCodec(reg, s)

			in := NewRecord("User", "u1").Set("name", "Ann").Set("bio", "long text").SetOutsourced("bio")

			var buf bytes.Buffer
			if err := codec.Serialize(&buf, in); err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			out, err := codec.Deserialize(&buf)
			if err != nil {
				t.Fatalf("Deserialize failed: %v", err)
			}

			if out.ID() != "u1" || out.Type() != "User" {
				t.Errorf("Unexpected identity %s/%s", out.ID(), out.Type())
			}
			// Outsourced properties are not part of the record
			want := map[string]string{"name": "Ann"}
			if diff := cmp.Diff(want, out.Properties()); diff != "" {
				t.Errorf("Properties mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecErrors(t *testing.T) {
	codec := NewCodec(NewRegistry(), nil)

	var buf bytes.Buffer
	if err := codec.Serialize(&buf, NewRecord("User", "u1")); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}

	if _, err := codec.FromData(map[string]string{KeyType: "User"}); err == nil {
		t.Errorf("Expected error for record without id")
	}
}

func TestValidNames(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"u1", false},
		{"3f2a-b..c", false},
		{"", true},
		{".", true},
		{"..", true},
		{"a/b", true},
		{`a\b`, true},
		{"../../../escaped", true},
		{"a\x00b", true},
	}
	for _, tt := range tests {
		if err := ValidID(tt.name); (err != nil) != tt.wantErr {
			t.Errorf("ValidID(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		} else if err != nil && !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidID(%q) should wrap ErrInvalidName, got %v", tt.name, err)
		}
		if err := ValidPropertyName(tt.name); (err != nil) != tt.wantErr {
			t.Errorf("ValidPropertyName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestRegistryCreateRejectsInvalidIDs(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("User", "", nil)

	if _, err := reg.Create("User", "../escaped"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}

	codec := NewCodec(reg, serializer.NewJSONSerializer())
	if _, err := codec.FromData(map[string]string{KeyID: "a/b", KeyType: "User"}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName from FromData, got %v", err)
	}

	// an empty id is generated by the factory
	e, err := reg.Create("User", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := ValidID(e.ID()); err != nil {
		t.Errorf("Expected valid generated id: %v", err)
	}
}
