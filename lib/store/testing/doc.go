// Package testing provides standardised tests and benchmarks for
// backends that satisfy the store.IBackend interface.
//
// The package contains:
//   - RunBackendTests: a conformance suite for the IBackend contract
//     (lookups, deletes, delete wins, queries, exactly once completion)
//   - RunBackendBenchmarks: throughput of updates, lookups and queries
//
// Asynchronous backends are supported: the suite always waits for the
// completion callback before it checks the result of an update.
//
// Example usage:
//
//	factory := func(reg *entity.Registry) store.IBackend {
//		return NewMyBackend(reg)
//	}
//
//	storetesting.RunBackendTests(t, "MyBackend", factory)
//	storetesting.RunBackendBenchmarks(b, "MyBackend", factory)
package testing
