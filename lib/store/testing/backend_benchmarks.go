package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/query"
	"github.com/ValentinKolb/dEntity/lib/store"
)

// RunBackendBenchmarks runs all benchmarks for a backend implementation
func RunBackendBenchmarks(b *testing.B, name string, factory BackendFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Save", func(b *testing.B) {
			benchmarkSave(b, factory(NewRegistry()))
		})

		b.Run("SaveExisting", func(b *testing.B) {
			benchmarkSaveExisting(b, factory(NewRegistry()))
		})

		b.Run("GetByID", func(b *testing.B) {
			benchmarkGetByID(b, factory(NewRegistry()))
		})

		b.Run("Find", func(b *testing.B) {
			benchmarkFind(b, factory(NewRegistry()))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory(NewRegistry()))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// prefill saves n users with the ids u0..u(n-1)
func prefill(b *testing.B, backend store.IBackend, n int) {
	b.Helper()
	entities := make([]entity.Entity, 0, n)
	for i := 0; i < n; i++ {
		entities = append(entities, user(fmt.Sprintf("u%d", i), fmt.Sprintf("name-%d", i%10)))
	}
	mustUpdate(b, backend, store.Save(entities...))
}

// Benchmark for saving new entities
func benchmarkSave(b *testing.B, backend store.IBackend) {
	var counter atomic.Int64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("u%d", counter.Add(1))
		mustUpdate(b, backend, store.Save(user(id, "bench")))
	}
}

// Benchmark for saving the same entity over and over
func benchmarkSaveExisting(b *testing.B, backend store.IBackend) {
	e := user("u1", "bench")
	mustUpdate(b, backend, store.Save(e))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Set("counter", fmt.Sprint(i))
		mustUpdate(b, backend, store.ChangeSet{
			Modified:          []entity.Entity{e},
			ChangedProperties: map[string][]string{"u1": {"counter"}},
		})
	}
}

// Benchmark for parallel lookups
func benchmarkGetByID(b *testing.B, backend store.IBackend) {
	const n = 1000
	prefill(b, backend, n)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			if _, err := backend.GetByID(fmt.Sprintf("u%d", r.Intn(n))); err != nil {
				b.Errorf("GetByID failed: %v", err)
			}
		}
	})
}

// Benchmark for property queries
func benchmarkFind(b *testing.B, backend store.IBackend) {
	prefill(b, backend, 1000)
	q := query.ByProperty("User", "name", "name-3")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if len(backend.Find(q)) != 100 {
			b.Fatalf("Unexpected number of results")
		}
	}
}

// Benchmark for a mix of saves (10%), deletes (10%) and lookups (80%)
func benchmarkMixedUsage(b *testing.B, backend store.IBackend) {
	const n = 1000
	prefill(b, backend, n)
	r := rand.New(rand.NewSource(42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("u%d", r.Intn(n))
		switch op := r.Intn(10); {
		case op == 0:
			mustUpdate(b, backend, store.Save(user(id, "mixed")))
		case op == 1:
			mustUpdate(b, backend, store.Delete(id))
		default:
			_ = backend.ContainsWithID(id)
		}
	}
}
