// Package syncer implements the generic reconciliation pass that merges a
// locally stored entity collection against a freshly fetched remote
// collection, keyed by the remote identity of each entity.
package syncer

import (
	"github.com/sirupsen/logrus"
)

// Funcs parameterizes a reconciliation pass for one entity type. E is the
// entity, K its remote identity key.
type Funcs[E any, K comparable] struct {
	// Key extracts the remote identity of an entity. An error means the
	// entity has no usable remote identity; the record is skipped with a
	// warning and does not abort the pass.
	Key func(E) (K, error)

	// LocalID returns the surrogate ID of a stored entity
	LocalID func(E) uint64

	// AssignID returns a copy of the entity carrying the given surrogate ID,
	// so a matched incoming entity updates its current row in place
	AssignID func(E, uint64) E

	Insert func(E) error
	Update func(E) error
	Delete func(ids []uint64) error
}

// Options controls a reconciliation pass
type Options struct {
	// RemoveMissing deletes current entities absent from the incoming set.
	// Full-refresh flows set it; merge flows that keep local extras do not.
	// Entities that must never be deleted (pending local mutations) are the
	// caller's to exclude from current before the pass.
	RemoveMissing bool
}

// Result reports what a reconciliation pass did
type Result struct {
	Added   int
	Updated int
	Deleted int
	Skipped int
}

// Sync reconciles current against incoming so the store ends up containing
// exactly the incoming set (modulo skipped records, and modulo deletions when
// opts.RemoveMissing is unset). Matched entities keep their surrogate ID.
//
// The store callbacks are expected to run inside one ambient transaction; any
// callback error aborts the pass and the transaction rolls everything back.
// Running the same pass twice over identical inputs is a no-op.
func Sync[E any, K comparable](logger logrus.FieldLogger, funcs Funcs[E, K], current, incoming []E, opts Options) (Result, error) {
	var result Result

	index := make(map[K]E, len(current))
	for _, entity := range current {
		key, err := funcs.Key(entity)
		if err != nil {
			logger.WithError(err).WithField("local_id", funcs.LocalID(entity)).
				Warn("Stored entity has no remote identity, leaving it alone")
			continue
		}
		index[key] = entity
	}

	visited := make(map[K]bool, len(incoming))
	for _, entity := range incoming {
		key, err := funcs.Key(entity)
		if err != nil {
			logger.WithError(err).Warn("Fetched record has no remote identity, skipping")
			result.Skipped++
			continue
		}

		if existing, ok := index[key]; ok {
			visited[key] = true
			if err := funcs.Update(funcs.AssignID(entity, funcs.LocalID(existing))); err != nil {
				return result, err
			}
			result.Updated++
		} else {
			if err := funcs.Insert(entity); err != nil {
				return result, err
			}
			result.Added++
		}
	}

	if opts.RemoveMissing {
		var stale []uint64
		for key, entity := range index {
			if !visited[key] {
				stale = append(stale, funcs.LocalID(entity))
			}
		}
		if len(stale) > 0 {
			if err := funcs.Delete(stale); err != nil {
				return result, err
			}
			result.Deleted = len(stale)
		}
	}

	return result, nil
}
