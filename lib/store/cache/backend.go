package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/VictoriaMetrics/metrics"
)

// IUpdateHandler is the durability strategy of a backend.
//
// OnUpdate receives a normalized change set. It must call done exactly once
// after the change is visible in the index (or with the error that stopped it),
// either before returning or later from another goroutine. A returned error is
// also reported through done by the Backend, so a handler that fails
// synchronously may simply return the error.
type IUpdateHandler interface {
	OnUpdate(cs store.ChangeSet, done store.CompletionFunc) error
}

// Backend is the base of all backends. It embeds the Index for lookups and
// queries and funnels every update through the IUpdateHandler.
// Concrete backends embed *Backend and override the methods they support.
type Backend struct {
	*Index
	name    string
	handler IUpdateHandler

	updates     *metrics.Counter
	failed      *metrics.Counter
	saved       *metrics.Counter
	deleted     *metrics.Counter
	updateTimes *metrics.Histogram
}

// NewBackend creates a backend base with an empty index
func NewBackend(name string, handler IUpdateHandler) *Backend {
	return &Backend{
		Index:       NewIndex(),
		name:        name,
		handler:     handler,
		updates:     metrics.GetOrCreateCounter(metricName("dentity_updates_total", name)),
		failed:      metrics.GetOrCreateCounter(metricName("dentity_updates_failed_total", name)),
		saved:       metrics.GetOrCreateCounter(metricName("dentity_entities_saved_total", name)),
		deleted:     metrics.GetOrCreateCounter(metricName("dentity_entities_deleted_total", name)),
		updateTimes: metrics.GetOrCreateHistogram(metricName("dentity_update_duration_seconds", name)),
	}
}

// Name returns the name of the backend
func (b *Backend) Name() string {
	return b.name
}

// metricName builds a metric name with a backend label
func metricName(metric, backend string) string {
	return fmt.Sprintf("%s{backend=%q}", metric, backend)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IBackend)
// --------------------------------------------------------------------------

func (b *Backend) Update(cs store.ChangeSet, onComplete store.CompletionFunc) error {
	start := time.Now()
	cs = cs.Normalize()
	b.updates.Inc()

	var once sync.Once
	done := func(err error) {
		once.Do(func() {
			b.updateTimes.UpdateDuration(start)
			if err != nil {
				b.failed.Inc()
			} else {
				b.saved.Add(len(cs.Modified))
				b.deleted.Add(len(cs.Deleted))
			}
			if onComplete != nil {
				onComplete(err)
			}
		})
	}

	if err := b.handler.OnUpdate(cs, done); err != nil {
		done(err)
		return err
	}
	return nil
}

func (b *Backend) LoadOutsourcedString(e entity.Entity, property string) (string, error) {
	return "", store.NewError(store.RetCUnsupportedOperation,
		fmt.Sprintf("backend %s does not support outsourced strings", b.name))
}

func (b *Backend) SaveOutsourcedString(e entity.Entity, property, value string) error {
	return store.NewError(store.RetCUnsupportedOperation,
		fmt.Sprintf("backend %s does not support outsourced strings", b.name))
}

func (b *Backend) IsPartial() bool {
	return false
}

func (b *Backend) Info() string {
	return fmt.Sprintf("%s (%d entities in %d types)", b.name, b.Count(""), len(b.Types()))
}
