// Package migrate implements the migration engine: per-entity migrators,
// junction handling, and the driver that runs them in dependency order.
package migrate

import (
	"time"

	"github.com/elliotchance/orderedmap/v2"
)

// EntityStats holds the per-entity counters for one migration run. The three
// primary counters are monotonically increasing and purely diagnostic; they
// are never persisted.
type EntityStats struct {
	Migrated int64 // records inserted (or would-be inserted in dry-run)
	Skipped  int64 // records already mapped from a previous run
	Failed   int64 // records whose insert or transform failed

	JunctionRows    int64 // junction rows upserted
	JunctionDropped int64 // junction entries dropped because the FK target was unresolved
	SecondPassFixed int64 // deferred self-reference columns updated

	Total int // source collection size as reported by the API
}

// Processed returns the number of records visited so far.
func (s *EntityStats) Processed() int64 {
	return s.Migrated + s.Skipped + s.Failed
}

// RunStats aggregates per-entity stats for one migration run, preserving the
// order entity types were executed in.
type RunStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	DryRun      bool

	entities *orderedmap.OrderedMap[string, *EntityStats]
}

// NewRunStats creates an empty RunStats.
func NewRunStats() *RunStats {
	return &RunStats{
		entities: orderedmap.NewOrderedMap[string, *EntityStats](),
	}
}

// Entity returns the stats bucket for an entity type, creating it on first use.
func (s *RunStats) Entity(entityType string) *EntityStats {
	if st, ok := s.entities.Get(entityType); ok {
		return st
	}
	st := &EntityStats{}
	s.entities.Set(entityType, st)
	return st
}

// Each visits the entity stats in execution order.
func (s *RunStats) Each(fn func(entityType string, st *EntityStats)) {
	for el := s.entities.Front(); el != nil; el = el.Next() {
		fn(el.Key, el.Value)
	}
}

// Len returns the number of entity types with stats.
func (s *RunStats) Len() int {
	return s.entities.Len()
}

// Totals sums the counters across all entity types.
func (s *RunStats) Totals() EntityStats {
	var total EntityStats
	s.Each(func(_ string, st *EntityStats) {
		total.Migrated += st.Migrated
		total.Skipped += st.Skipped
		total.Failed += st.Failed
		total.JunctionRows += st.JunctionRows
		total.JunctionDropped += st.JunctionDropped
		total.SecondPassFixed += st.SecondPassFixed
		total.Total += st.Total
	})
	return total
}
