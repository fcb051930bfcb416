// Package util provides small concurrency helpers.
//
// Queue is an unbounded lock-free multi-producer single-consumer queue. Any
// number of goroutines may Push concurrently, one goroutine consumes the
// items from the Recv channel. Under concurrent pushes the order between
// producers is the order in which their CAS succeeded; the items of a single
// producer keep their order. The remote store uses it to hand change sets to
// its forwarding worker without blocking the committer.
package util
