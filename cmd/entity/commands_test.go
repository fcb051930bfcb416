package entity

import (
	"testing"

	libEntity "github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/google/go-cmp/cmp"
)

func TestParseProperties(t *testing.T) {
	got, err := parseProperties([]string{"name=Alice", "note=a=b", "empty="})
	if err != nil {
		t.Fatalf("parseProperties failed: %v", err)
	}
	want := map[string]string{"name": "Alice", "note": "a=b", "empty": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected properties (-want +got):\n%s", diff)
	}

	for _, invalid := range []string{"name", "=value", "id=1", "@type=User"} {
		if _, err := parseProperties([]string{invalid}); err == nil {
			t.Errorf("parseProperties(%q) should fail", invalid)
		}
	}
}

func TestFormatRecord(t *testing.T) {
	record := map[string]string{
		libEntity.KeyID:   "42",
		libEntity.KeyType: "User",
		"name":            "Alice",
		"age":             "30",
	}
	want := `User 42 age="30" name="Alice"`
	if got := formatRecord(record); got != want {
		t.Errorf("formatRecord() = %s, want %s", got, want)
	}
}

func TestCreateEntityRegistersUnknownTypes(t *testing.T) {
	registry = libEntity.NewRegistry()
	t.Cleanup(func() { registry = nil })

	e, err := createEntity("Project", "p1")
	if err != nil {
		t.Fatalf("createEntity failed: %v", err)
	}
	if e.ID() != "p1" || e.Type() != "Project" {
		t.Errorf("unexpected entity %s/%s", e.Type(), e.ID())
	}
	if _, ok := registry.ByAlias("Project"); !ok {
		t.Error("type should be registered with its name as alias")
	}
}
