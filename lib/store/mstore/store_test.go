package mstore

import (
	"testing"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/store"
	storetesting "github.com/ValentinKolb/dEntity/lib/store/testing"
)

func TestMemoryStore(t *testing.T) {
	storetesting.RunBackendTests(t, "MemoryStore", func(reg *entity.Registry) store.IBackend {
		return NewMemoryStore()
	})
}

func BenchmarkMemoryStore(b *testing.B) {
	storetesting.RunBackendBenchmarks(b, "MemoryStore", func(reg *entity.Registry) store.IBackend {
		return NewMemoryStore()
	})
}
