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

package stream

import (
	"cmp"
	"context"

	"go.uber.org/zap"

	"github.com/api7/rxcache/changeset"
	"github.com/api7/rxcache/sorting"
)

// PipelineOptions wires the optional inputs of a SortPipeline.
type PipelineOptions[K cmp.Ordered, V any] struct {
	Logger *zap.Logger
	// Comparers delivers comparer swaps. Nil means the comparer never changes.
	Comparers <-chan *sorting.KeyValueComparer[K, V]
	// Resort delivers explicit re-sort requests.
	Resort <-chan struct{}
}

// SortPipeline feeds a Sorter from channels on a single goroutine and
// publishes what it emits.
type SortPipeline[K cmp.Ordered, V any] struct {
	sorter    *sorting.Sorter[K, V]
	data      <-chan *changeset.ChangeSet[K, V]
	comparers <-chan *sorting.KeyValueComparer[K, V]
	resort    <-chan struct{}
	out       chan *sorting.SortedChangeSet[K, V]
	logger    *zap.Logger
}

func NewSortPipeline[K cmp.Ordered, V any](sorter *sorting.Sorter[K, V], data <-chan *changeset.ChangeSet[K, V], opts *PipelineOptions[K, V]) *SortPipeline[K, V] {
	if opts == nil {
		opts = &PipelineOptions[K, V]{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SortPipeline[K, V]{
		sorter:    sorter,
		data:      data,
		comparers: opts.Comparers,
		resort:    opts.Resort,
		out:       make(chan *sorting.SortedChangeSet[K, V]),
		logger:    logger,
	}
}

// Output is closed when Run returns.
func (p *SortPipeline[K, V]) Output() <-chan *sorting.SortedChangeSet[K, V] {
	return p.out
}

// Run consumes the inputs until the data channel is closed or ctx is done.
// A sorting error stops the pipeline and is returned.
func (p *SortPipeline[K, V]) Run(ctx context.Context) error {
	defer close(p.out)
	for {
		var (
			result *sorting.SortedChangeSet[K, V]
			err    error
		)
		select {
		case <-ctx.Done():
			p.logger.Debug("sort pipeline stopped",
				zap.Error(ctx.Err()),
			)
			return nil
		case cs, ok := <-p.data:
			if !ok {
				p.logger.Debug("data source completed")
				return nil
			}
			result, err = p.sorter.Sort(cs)
		case c, ok := <-p.comparers:
			if !ok {
				p.comparers = nil
				continue
			}
			result, err = p.sorter.ChangeComparer(c)
		case _, ok := <-p.resort:
			if !ok {
				p.resort = nil
				continue
			}
			result, err = p.sorter.Resort()
		}
		if err != nil {
			p.logger.Error("sort pipeline failed",
				zap.Error(err),
			)
			return err
		}
		if result == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case p.out <- result:
		}
	}
}
