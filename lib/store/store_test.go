package store

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/google/go-cmp/cmp"
)

func ids(entities []entity.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID())
	}
	return out
}

func TestChangeSetNormalize(t *testing.T) {
	a := entity.NewRecord("User", "a")
	b := entity.NewRecord("User", "b")
	c := entity.NewRecord("User", "c")

	cs := ChangeSet{
		Modified:    []entity.Entity{a, b, a, nil, c},
		Deleted:     []string{"b", "x", "b"},
		Description: "test",
	}.Normalize()

	if diff := cmp.Diff([]string{"a", "c"}, ids(cs.Modified)); diff != "" {
		t.Errorf("Modified mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "x"}, cs.Deleted); diff != "" {
		t.Errorf("Deleted mismatch (-want +got):\n%s", diff)
	}
	if cs.Description != "test" {
		t.Errorf("Description lost")
	}
}

func TestChangeSetHelpers(t *testing.T) {
	if !(ChangeSet{}).IsEmpty() {
		t.Errorf("Expected empty change set")
	}
	if Save(entity.NewRecord("User", "a")).IsEmpty() || Delete("a").IsEmpty() {
		t.Errorf("Expected non empty change sets")
	}

	cs := ChangeSet{ChangedProperties: map[string][]string{"a": {"name"}}}
	if names, ok := cs.Changed("a"); !ok || len(names) != 1 {
		t.Errorf("Expected changed properties for a")
	}
	if _, ok := cs.Changed("b"); ok {
		t.Errorf("Expected no changed properties for b")
	}
}

func TestErrors(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewError(RetCEntityNotFound, "no entity u1"))

	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("Expected error to match ErrEntityNotFound")
	}
	if errors.Is(err, ErrStoreLocked) {
		t.Errorf("Expected error not to match ErrStoreLocked")
	}
	if CodeOf(err) != RetCEntityNotFound {
		t.Errorf("Expected code EntityNotFound, got %s", CodeOf(err))
	}

	wrapped := WrapError(RetCInternalError, io.ErrUnexpectedEOF, "reading %s", "u1")
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Errorf("Expected cause to be unwrapped")
	}
	if CodeOf(io.EOF) != RetCInternalError || CodeOf(nil) != RetCSuccess {
		t.Errorf("Unexpected codes for plain errors")
	}
	if StateLocked.String() != "Locked" {
		t.Errorf("Unexpected state name %s", StateLocked)
	}
}
