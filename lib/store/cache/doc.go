// Package cache contains the parts every backend shares: the in-memory Index
// and the Backend base that funnels updates into a backend specific IUpdateHandler.
//
// The Index keeps one container per type and an owner map from id to type.
// Queries are evaluated per container: containers whose type fails
// query.IQuery.TestType are skipped, query.AllOfType copies the container
// without testing each entity.
//
// The Backend records the following metrics per backend name
// (github.com/VictoriaMetrics/metrics, exposed by the server at /metrics):
//
//	dentity_updates_total
//	dentity_updates_failed_total
//	dentity_entities_saved_total
//	dentity_entities_deleted_total
//	dentity_update_duration_seconds
package cache
