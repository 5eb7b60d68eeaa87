// Copyright api7.ai
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package sorting

import (
	"cmp"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/api7/rxcache/cache"
	"github.com/api7/rxcache/changeset"
)

// Options contains settings for a Sorter.
type Options struct {
	// Logger is used for debug logs of every sort decision. Nil means no logs.
	Logger *zap.Logger
	// Optimisations are handed to the IndexCalculator.
	Optimisations SortOptimisations
	// ResetThreshold is the batch size from which the sorted list is rebuilt
	// instead of patched. Zero means never.
	ResetThreshold int
	// Prom is where metrics are registered. Nil means unregistered.
	Prom prometheus.Registerer
}

// Sorter keeps a sorted projection of a change set stream. It mirrors the
// whole source in a ChangeAwareCache so that it can rebuild the projection
// at any time, and decides for every input whether to load, patch, reorder
// or reset the projection.
//
// Sorter is not thread-safe, every call must happen on the same logical
// thread (see stream.SortPipeline).
type Sorter[K cmp.Ordered, V any] struct {
	cache      *cache.ChangeAwareCache[K, V]
	comparer   *KeyValueComparer[K, V]
	calculator *IndexCalculator[K, V]

	optimisations  SortOptimisations
	resetThreshold int
	loaded         bool
	lastReason     SortReason

	logger  *zap.Logger
	metrics *metrics
}

// NewSorter creates a Sorter. comparer may be nil, the Sorter then mirrors
// data but emits nothing until ChangeComparer is called.
func NewSorter[K cmp.Ordered, V any](comparer *KeyValueComparer[K, V], opts *Options) (*Sorter[K, V], error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m, err := newMetrics(opts.Prom)
	if err != nil {
		return nil, errors.Wrap(err, "register sorter metrics")
	}
	s := &Sorter[K, V]{
		cache:          cache.New[K, V](),
		comparer:       comparer,
		optimisations:  opts.Optimisations,
		resetThreshold: opts.ResetThreshold,
		logger:         logger,
		metrics:        m,
	}
	if comparer != nil {
		if s.calculator, err = NewIndexCalculator(comparer, s.optimisations); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Sort handles a data change set. It returns nil when there is nothing to
// emit.
func (s *Sorter[K, V]) Sort(changes *changeset.ChangeSet[K, V]) (*SortedChangeSet[K, V], error) {
	if changes == nil {
		return nil, changeset.ErrNilChangeSet
	}
	if err := s.cache.Clone(changes); err != nil {
		return nil, err
	}
	captured := s.cache.CaptureChanges()

	if s.calculator == nil {
		s.logger.Debug("comparer is not set yet, data is mirrored only",
			zap.Int("changes", captured.Len()),
		)
		return s.suppress(), nil
	}
	if !s.loaded {
		return s.load(), nil
	}
	if captured.IsEmpty() {
		return s.suppress(), nil
	}

	if s.shouldReset(captured.Len()) {
		s.calculator.Reset(s.cache.KeyValues())
		s.logger.Debug("batch reached the reset threshold, sorted list rebuilt",
			zap.Int("changes", captured.Len()),
			zap.Int("reset_threshold", s.resetThreshold),
		)
		return s.emit(Reset, captured), nil
	}

	result, err := s.calculator.Calculate(changeset.ReduceChangeSet(captured))
	if err != nil {
		s.logger.Error("failed to calculate sorted changes",
			zap.Error(err),
			zap.Int("changes", captured.Len()),
		)
		return nil, errors.WithStack(err)
	}
	if result.IsEmpty() {
		return s.suppress(), nil
	}
	return s.emit(DataChanged, result), nil
}

// ChangeComparer swaps the comparer and reorders the projection. It returns
// nil when there is nothing to emit.
func (s *Sorter[K, V]) ChangeComparer(comparer *KeyValueComparer[K, V]) (*SortedChangeSet[K, V], error) {
	if comparer == nil {
		return nil, changeset.ErrNilComparer
	}
	s.comparer = comparer
	if s.calculator == nil {
		calculator, err := NewIndexCalculator(comparer, s.optimisations)
		if err != nil {
			return nil, err
		}
		s.calculator = calculator
	} else if err := s.calculator.ChangeComparer(comparer); err != nil {
		return nil, err
	}

	if !s.loaded {
		return s.load(), nil
	}
	if s.shouldReset(s.cache.Count()) {
		s.calculator.Reset(s.cache.KeyValues())
		s.logger.Debug("comparer changed on a large list, sorted list rebuilt",
			zap.Int("items", s.cache.Count()),
		)
		return s.emit(Reset, changeset.Empty[K, V]()), nil
	}
	return s.reorder(ComparerChanged), nil
}

// Resort sorts the projection again, for values that were mutated in place.
// It returns nil when nothing moved.
func (s *Sorter[K, V]) Resort() (*SortedChangeSet[K, V], error) {
	if s.calculator == nil || !s.loaded {
		return s.suppress(), nil
	}
	return s.reorder(Reorder), nil
}

// Snapshot returns the current projection as Adds at their positions, or
// nil if nothing was loaded yet.
func (s *Sorter[K, V]) Snapshot() *SortedChangeSet[K, V] {
	if !s.loaded {
		return nil
	}
	items := s.calculator.List()
	b := changeset.NewBuilder[K, V](len(items))
	for i, kv := range items {
		b.Append(changeset.NewIndexedChange(changeset.Add, kv.Key, kv.Value, i))
	}
	return &SortedChangeSet[K, V]{
		ChangeSet: b.Build(),
		reason:    InitialLoad,
		items:     items,
	}
}

// SortReason returns the reason of the last emission.
func (s *Sorter[K, V]) SortReason() SortReason {
	return s.lastReason
}

// Items returns the sorted projection.
func (s *Sorter[K, V]) Items() []changeset.KeyValue[K, V] {
	if s.calculator == nil {
		return nil
	}
	return s.calculator.List()
}

func (s *Sorter[K, V]) load() *SortedChangeSet[K, V] {
	if s.cache.Count() == 0 {
		return s.suppress()
	}
	s.loaded = true
	result := s.calculator.Load(s.cache.KeyValues())
	s.logger.Debug("initial load",
		zap.Int("items", result.Len()),
	)
	return s.emit(InitialLoad, result)
}

func (s *Sorter[K, V]) reorder(reason SortReason) *SortedChangeSet[K, V] {
	moves, changed := s.calculator.Reorder()
	if s.optimisations.Has(IgnoreRefreshMoves) {
		if !changed {
			return s.suppress()
		}
		s.logger.Debug("sorted list rebuilt without moves",
			zap.Stringer("reason", reason),
		)
		return s.emit(Reset, moves)
	}
	if moves.IsEmpty() {
		return s.suppress()
	}
	s.logger.Debug("sorted list reordered",
		zap.Stringer("reason", reason),
		zap.Int("moves", moves.Len()),
	)
	return s.emit(reason, moves)
}

func (s *Sorter[K, V]) shouldReset(size int) bool {
	return s.resetThreshold > 0 && size >= s.resetThreshold
}

func (s *Sorter[K, V]) emit(reason SortReason, cs *changeset.ChangeSet[K, V]) *SortedChangeSet[K, V] {
	s.lastReason = reason
	s.metrics.batches.WithLabelValues(reason.String()).Inc()
	cs.Each(func(c changeset.Change[K, V]) bool {
		s.metrics.changes.WithLabelValues(c.Reason.String()).Inc()
		return true
	})
	return &SortedChangeSet[K, V]{
		ChangeSet: cs,
		reason:    reason,
		items:     s.calculator.List(),
	}
}

func (s *Sorter[K, V]) suppress() *SortedChangeSet[K, V] {
	s.metrics.suppressed.Inc()
	return nil
}
