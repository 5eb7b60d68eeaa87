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
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api7/rxcache/cache"
	"github.com/api7/rxcache/changeset"
	"github.com/api7/rxcache/sorting"
)

type score struct {
	v int
}

func scoreComparer() *sorting.KeyValueComparer[string, *score] {
	return sorting.NewKeyValueComparer[string](sorting.Ascending(func(s *score) int { return s.v }))
}

func keys[V any](items []changeset.KeyValue[string, V]) []string {
	var out []string
	for _, kv := range items {
		out = append(out, kv.Key)
	}
	return out
}

func waitRun(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the pipeline")
	}
	return nil
}

func TestSortPipeline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sorter, err := sorting.NewSorter[string, int](nil, nil)
	require.Nil(t, err, "checking error")

	data := make(chan *changeset.ChangeSet[string, int])
	comparers := make(chan *sorting.KeyValueComparer[string, int])
	resort := make(chan struct{})
	p := NewSortPipeline(sorter, data, &PipelineOptions[string, int]{
		Comparers: comparers,
		Resort:    resort,
	})
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	data <- changeset.New(
		changeset.NewChange(changeset.Add, "b", 2),
		changeset.NewChange(changeset.Add, "a", 1),
	)
	comparers <- sorting.NewKeyValueComparer[string](sorting.Ascending(func(v int) int { return v }))
	out := receive(t, p.Output())
	assert.Equal(t, sorting.InitialLoad, out.SortReason(), "checking reason")
	assert.Equal(t, []string{"a", "b"}, keys(out.SortedItems()), "checking order")

	data <- changeset.New(changeset.NewChange(changeset.Add, "c", 0))
	out = receive(t, p.Output())
	assert.Equal(t, sorting.DataChanged, out.SortReason(), "checking reason")
	assert.Equal(t, []changeset.Change[string, int]{
		changeset.NewIndexedChange(changeset.Add, "c", 0, 0),
	}, out.Changes(), "checking changes")

	// nothing to move
	resort <- struct{}{}

	comparers <- sorting.NewKeyValueComparer[string](sorting.Descending(func(v int) int { return v }))
	out = receive(t, p.Output())
	assert.Equal(t, sorting.ComparerChanged, out.SortReason(), "checking reason")
	assert.Equal(t, []string{"b", "a", "c"}, keys(out.SortedItems()), "checking order")

	close(comparers)
	close(resort)
	close(data)
	assert.Nil(t, waitRun(t, errCh), "checking run result")
	_, ok := <-p.Output()
	assert.False(t, ok, "checking output is closed")
}

func TestSortPipelineFromSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, b, c := &score{1}, &score{2}, &score{3}
	src := NewSource[string, *score](nil)
	src.Edit(func(u *cache.Updater[string, *score]) {
		u.AddOrUpdate(c, "c")
		u.AddOrUpdate(a, "a")
	})

	sorter, err := sorting.NewSorter(scoreComparer(), nil)
	require.Nil(t, err, "checking error")
	resort := make(chan struct{})
	p := NewSortPipeline(sorter, src.Connect(ctx), &PipelineOptions[string, *score]{Resort: resort})
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	out := receive(t, p.Output())
	assert.Equal(t, sorting.InitialLoad, out.SortReason(), "checking reason")
	assert.Equal(t, []string{"a", "c"}, keys(out.SortedItems()), "checking order")

	src.Edit(func(u *cache.Updater[string, *score]) {
		u.AddOrUpdate(b, "b")
	})
	out = receive(t, p.Output())
	assert.Equal(t, []changeset.Change[string, *score]{
		changeset.NewIndexedChange(changeset.Add, "b", b, 1),
	}, out.Changes(), "checking changes")

	a.v = 10
	resort <- struct{}{}
	out = receive(t, p.Output())
	assert.Equal(t, sorting.Reorder, out.SortReason(), "checking reason")
	assert.Equal(t, []changeset.Change[string, *score]{
		changeset.NewMove("a", a, 2, 0),
	}, out.Changes(), "checking changes")

	cancel()
	assert.Nil(t, waitRun(t, errCh), "checking run result")
}

func TestSortPipelineStopsOnError(t *testing.T) {
	a, b, c := &score{1}, &score{2}, &score{3}
	sorter, err := sorting.NewSorter(scoreComparer(), &sorting.Options{
		Optimisations: sorting.AssumeStablePositions,
	})
	require.Nil(t, err, "checking error")

	data := make(chan *changeset.ChangeSet[string, *score], 2)
	p := NewSortPipeline(sorter, data, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()

	data <- changeset.New(
		changeset.NewChange(changeset.Add, "a", a),
		changeset.NewChange(changeset.Add, "b", b),
		changeset.NewChange(changeset.Add, "c", c),
	)
	receive(t, p.Output())

	b.v = 100
	data <- changeset.New(
		changeset.NewChange(changeset.Remove, "a", a),
		changeset.NewChange(changeset.Remove, "c", c),
	)
	err = waitRun(t, errCh)
	var se *changeset.SortError
	require.True(t, errors.As(err, &se), "checking error type")
	_, ok := <-p.Output()
	assert.False(t, ok, "checking output is closed")
}

func TestSortPipelineForwardsEmptyReset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sorter, err := sorting.NewSorter(sorting.NewKeyValueComparer[string](sorting.Ascending(func(v int) int { return v })),
		&sorting.Options{ResetThreshold: 2})
	require.Nil(t, err, "checking error")

	data := make(chan *changeset.ChangeSet[string, int])
	comparers := make(chan *sorting.KeyValueComparer[string, int])
	p := NewSortPipeline(sorter, data, &PipelineOptions[string, int]{Comparers: comparers})
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	data <- changeset.New(
		changeset.NewChange(changeset.Add, "a", 1),
		changeset.NewChange(changeset.Add, "b", 2),
	)
	receive(t, p.Output())

	comparers <- sorting.NewKeyValueComparer[string](sorting.Descending(func(v int) int { return v }))
	out := receive(t, p.Output())
	assert.Equal(t, sorting.Reset, out.SortReason(), "checking reason")
	assert.True(t, out.IsEmpty(), "checking no changes")
	assert.Equal(t, []string{"b", "a"}, keys(out.SortedItems()), "checking order")

	close(data)
	assert.Nil(t, waitRun(t, errCh), "checking run result")
}
