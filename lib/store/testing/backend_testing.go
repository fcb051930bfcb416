package testing

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/query"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/google/go-cmp/cmp"
)

// BackendFactory creates a new, empty backend. The registry knows the
// types "User" (alias "User") and "Project" (alias "proj").
type BackendFactory func(reg *entity.Registry) store.IBackend

// NewRegistry creates the registry passed to every BackendFactory
func NewRegistry() *entity.Registry {
	reg := entity.NewRegistry()
	reg.MustRegister("User", "User", nil)
	reg.MustRegister("Project", "proj", nil)
	return reg
}

// RunBackendTests runs the conformance test suite for a store.IBackend implementation.
func RunBackendTests(t *testing.T, name string, factory BackendFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Save&Get", func(t *testing.T) {
			testSaveGet(t, factory(NewRegistry()))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(NewRegistry()))
		})

		t.Run("DeleteTwice", func(t *testing.T) {
			testDeleteTwice(t, factory(NewRegistry()))
		})

		t.Run("DeleteWins", func(t *testing.T) {
			testDeleteWins(t, factory(NewRegistry()))
		})

		t.Run("Transient", func(t *testing.T) {
			testTransient(t, factory(NewRegistry()))
		})

		t.Run("GetByIDs", func(t *testing.T) {
			testGetByIDs(t, factory(NewRegistry()))
		})

		t.Run("Find", func(t *testing.T) {
			testFind(t, factory(NewRegistry()))
		})

		t.Run("Completion", func(t *testing.T) {
			testCompletion(t, factory(NewRegistry()))
		})

		t.Run("ConcurrentReads", func(t *testing.T) {
			testConcurrentReads(t, factory(NewRegistry()))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory(NewRegistry()))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Update calls backend.Update and waits for the completion callback.
// It fails the test if the callback is not called within 5 seconds.
func Update(t testing.TB, backend store.IBackend, cs store.ChangeSet) error {
	t.Helper()
	result := make(chan error, 1)
	if err := backend.Update(cs, func(err error) { result <- err }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("Update did not complete")
		return nil
	}
}

// mustUpdate is like Update but fails the test on error
func mustUpdate(t testing.TB, backend store.IBackend, cs store.ChangeSet) {
	t.Helper()
	if err := Update(t, backend, cs); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

// IDs returns the sorted ids of the given entities
func IDs(entities []entity.Entity) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID())
	}
	sort.Strings(ids)
	return ids
}

func user(id, name string) *entity.Record {
	return entity.NewRecord("User", id).Set("name", name)
}

func project(id, name string) *entity.Record {
	return entity.NewRecord("Project", id).Set("name", name)
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSaveGet(t *testing.T, backend store.IBackend) {
	mustUpdate(t, backend, store.Save(user("u1", "Ann")))

	e, err := backend.GetByID("u1")
	if err != nil {
		t.Fatalf("Expected u1 to exist after saving: %v", err)
	}
	if e.Type() != "User" {
		t.Errorf("Expected type User, got %s", e.Type())
	}
	if diff := cmp.Diff(map[string]string{"name": "Ann"}, e.Properties()); diff != "" {
		t.Errorf("Properties mismatch (-want +got):\n%s", diff)
	}
	if !backend.ContainsWithID("u1") {
		t.Errorf("Expected ContainsWithID(u1) to be true")
	}

	// Saving again replaces the properties
	e.UpdateProperties(map[string]string{"name": "Anna"})
	mustUpdate(t, backend, store.ChangeSet{
		Modified:          []entity.Entity{e},
		ChangedProperties: map[string][]string{"u1": {"name"}},
	})
	e, _ = backend.GetByID("u1")
	if name := e.Properties()["name"]; name != "Anna" {
		t.Errorf("Expected name Anna, got %s", name)
	}

	if _, err := backend.GetByID("nonexistent"); !errors.Is(err, store.ErrEntityNotFound) {
		t.Errorf("Expected ErrEntityNotFound, got %v", err)
	}
	if backend.ContainsWithID("nonexistent") {
		t.Errorf("Expected ContainsWithID(nonexistent) to be false")
	}
	if backend.Info() == "" {
		t.Errorf("Expected backend info")
	}
}

func testDelete(t *testing.T, backend store.IBackend) {
	mustUpdate(t, backend, store.Save(user("u1", "Ann"), user("u2", "Bob")))
	mustUpdate(t, backend, store.Delete("u1"))

	if _, err := backend.GetByID("u1"); !errors.Is(err, store.ErrEntityNotFound) {
		t.Errorf("Expected ErrEntityNotFound after delete, got %v", err)
	}
	if !backend.ContainsWithID("u2") {
		t.Errorf("Expected u2 to be unaffected")
	}
}

func testDeleteTwice(t *testing.T, backend store.IBackend) {
	mustUpdate(t, backend, store.Save(user("u1", "Ann"), user("u2", "Bob")))
	mustUpdate(t, backend, store.Delete("u1"))

	if err := Update(t, backend, store.Delete("u1")); err != nil {
		t.Errorf("Deleting an absent id must not fail: %v", err)
	}
	if err := Update(t, backend, store.Delete("never-existed")); err != nil {
		t.Errorf("Deleting an unknown id must not fail: %v", err)
	}
	if diff := cmp.Diff([]string{"u2"}, IDs(backend.GetAll())); diff != "" {
		t.Errorf("GetAll mismatch (-want +got):\n%s", diff)
	}
}

func testDeleteWins(t *testing.T, backend store.IBackend) {
	mustUpdate(t, backend, store.Save(user("u1", "Ann")))

	mustUpdate(t, backend, store.ChangeSet{
		Modified: []entity.Entity{user("u1", "Changed"), user("u3", "New")},
		Deleted:  []string{"u1", "u3"},
	})

	if backend.ContainsWithID("u1") || backend.ContainsWithID("u3") {
		t.Errorf("Expected ids in both modified and deleted to be absent")
	}
}

// transient entities are indexed like any other entity, only durable writes skip them
func testTransient(t *testing.T, backend store.IBackend) {
	mustUpdate(t, backend, store.Save(user("u1", "Ann"), user("t1", "Tom").SetTransient(true)))

	if !backend.ContainsWithID("t1") {
		t.Errorf("Expected transient entity to be held")
	}
	if diff := cmp.Diff([]string{"t1", "u1"}, IDs(backend.Find(query.OfType("User")))); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"t1", "u1"}, IDs(backend.GetAll())); diff != "" {
		t.Errorf("GetAll mismatch (-want +got):\n%s", diff)
	}

	mustUpdate(t, backend, store.Delete("t1"))
	if backend.ContainsWithID("t1") {
		t.Errorf("Expected transient entity to be deleted")
	}
}

func testGetByIDs(t *testing.T, backend store.IBackend) {
	mustUpdate(t, backend, store.Save(user("u1", "Ann"), project("p1", "Apollo")))

	got, err := backend.GetByIDs([]string{"p1", "u1"})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 2 || got[0].ID() != "p1" || got[1].ID() != "u1" {
		t.Errorf("Expected [p1 u1] in order, got %v", IDs(got))
	}

	got, err = backend.GetByIDs([]string{"u1", "missing"})
	if !errors.Is(err, store.ErrEntityNotFound) {
		t.Errorf("Expected ErrEntityNotFound, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected no partial result, got %v", IDs(got))
	}
}

func testFind(t *testing.T, backend store.IBackend) {
	mustUpdate(t, backend, store.Save(
		user("u1", "Ann"), user("u2", "Bob"), user("u3", "Ann"),
		project("p1", "Ann"), project("p2", "Apollo"),
	))

	testCases := []struct {
		name  string
		query query.IQuery
		want  []string
	}{
		{"All users", query.OfType("User"), []string{"u1", "u2", "u3"}},
		{"All projects", query.OfType("Project"), []string{"p1", "p2"}},
		{"Unknown type", query.OfType("Task"), []string{}},
		{"Everything", query.All(), []string{"p1", "p2", "u1", "u2", "u3"}},
		{"Users named Ann", query.ByProperty("User", "name", "Ann"), []string{"u1", "u3"}},
		{"Anything named Ann", query.ByProperty("", "name", "Ann"), []string{"p1", "u1", "u3"}},
		{"Predicate", query.Where("User", func(e entity.Entity) bool { return e.ID() > "u1" }), []string{"u2", "u3"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, IDs(backend.Find(tc.query))); diff != "" {
				t.Errorf("Find mismatch (-want +got):\n%s", diff)
			}

			e, ok := backend.FindFirst(tc.query)
			if ok != (len(tc.want) > 0) {
				t.Fatalf("FindFirst: expected found=%v, got %v", len(tc.want) > 0, ok)
			}
			if ok && !contains(tc.want, e.ID()) {
				t.Errorf("FindFirst returned unexpected entity %s", e.ID())
			}
		})
	}

	if n := len(backend.GetAll()); n != 5 {
		t.Errorf("Expected 5 entities, got %d", n)
	}
}

func testCompletion(t *testing.T, backend store.IBackend) {
	var mu sync.Mutex
	calls := 0
	finished := make(chan struct{})

	err := backend.Update(store.Save(user("u1", "Ann")), func(err error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if err != nil {
			t.Errorf("Unexpected completion error: %v", err)
		}
		if calls == 1 {
			close(finished)
		}
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatalf("Completion callback was not called")
	}

	// The change must be visible once the callback fired
	if !backend.ContainsWithID("u1") {
		t.Errorf("Expected u1 to be visible after completion")
	}

	// A nil callback is allowed
	if err := backend.Update(store.Save(user("u2", "Bob")), nil); err != nil {
		t.Errorf("Update with nil callback failed: %v", err)
	}

	// Give late duplicate calls a chance to show up
	mustUpdate(t, backend, store.Delete("u2"))
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("Expected exactly one completion call, got %d", calls)
	}
}

func testConcurrentReads(t *testing.T, backend store.IBackend) {
	const numEntities = 50
	var entities []entity.Entity
	for i := 0; i < numEntities; i++ {
		entities = append(entities, user(fmt.Sprintf("u%02d", i), fmt.Sprintf("name-%d", i)))
	}
	mustUpdate(t, backend, store.Save(entities...))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < numEntities; i++ {
				if _, err := backend.GetByID(fmt.Sprintf("u%02d", i)); err != nil {
					t.Errorf("GetByID failed: %v", err)
					return
				}
			}
			if n := len(backend.Find(query.OfType("User"))); n != numEntities {
				t.Errorf("Expected %d users, got %d", numEntities, n)
			}
		}()
	}
	wg.Wait()
}

func testRealisticUsage(t *testing.T, backend store.IBackend) {
	// Create a project with members
	p := project("p1", "Apollo").Set("members", "u1,u2")
	mustUpdate(t, backend, store.ChangeSet{
		Modified:    []entity.Entity{p, user("u1", "Ann"), user("u2", "Bob")},
		Description: "create project",
	})

	// Rename a member and remove the other one in one commit
	u1, err := backend.GetByID("u1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	u1.UpdateProperties(map[string]string{"name": "Ann Smith"})
	p.Set("members", "u1")
	mustUpdate(t, backend, store.ChangeSet{
		Modified:          []entity.Entity{u1, p},
		Deleted:           []string{"u2"},
		ChangedProperties: map[string][]string{"u1": {"name"}, "p1": {"members"}},
		Description:       "remove bob",
	})

	if diff := cmp.Diff([]string{"p1", "u1"}, IDs(backend.GetAll())); diff != "" {
		t.Errorf("GetAll mismatch (-want +got):\n%s", diff)
	}
	found, ok := backend.FindFirst(query.ByProperty("User", "name", "Ann Smith"))
	if !ok || found.ID() != "u1" {
		t.Errorf("Expected to find renamed user")
	}
	got, _ := backend.GetByID("p1")
	if got.Properties()["members"] != "u1" {
		t.Errorf("Expected members u1, got %s", got.Properties()["members"])
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
