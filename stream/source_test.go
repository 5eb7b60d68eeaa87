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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/api7/rxcache/cache"
	"github.com/api7/rxcache/changeset"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "checking channel is open")
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a batch")
	}
	var zero T
	return zero
}

func TestSourceLiveBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewSource[string, int](zap.NewExample())
	ch := src.Connect(ctx)

	captured := src.Edit(func(u *cache.Updater[string, int]) {
		u.AddOrUpdate(1, "a")
		u.AddOrUpdate(2, "b")
	})
	assert.Equal(t, 2, captured.Adds(), "checking captured")

	// nothing changes, nothing is published
	captured = src.Edit(func(u *cache.Updater[string, int]) {
		u.Remove("missing")
	})
	assert.True(t, captured.IsEmpty(), "checking empty edit")

	src.Edit(func(u *cache.Updater[string, int]) {
		u.AddOrUpdate(3, "a")
	})

	cs := receive(t, ch)
	assert.Equal(t, 2, cs.Adds(), "checking first batch")
	cs = receive(t, ch)
	assert.Equal(t, []changeset.Change[string, int]{
		changeset.NewUpdate("a", 3, 1),
	}, cs.Changes(), "checking second batch")

	assert.Equal(t, 2, src.Count(), "checking count")
	assert.Equal(t, 3, src.Lookup("a").ValueOr(0), "checking lookup")
}

func TestSourceSnapshotFirst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewSource[string, int](nil)
	src.Edit(func(u *cache.Updater[string, int]) {
		u.AddOrUpdate(2, "b")
		u.AddOrUpdate(1, "a")
	})

	ch := src.Connect(ctx)
	src.Edit(func(u *cache.Updater[string, int]) {
		u.Remove("a")
	})

	cs := receive(t, ch)
	assert.Equal(t, []changeset.Change[string, int]{
		changeset.NewChange(changeset.Add, "a", 1),
		changeset.NewChange(changeset.Add, "b", 2),
	}, cs.Changes(), "checking snapshot")
	cs = receive(t, ch)
	assert.Equal(t, []changeset.Change[string, int]{
		changeset.NewChange(changeset.Remove, "a", 1),
	}, cs.Changes(), "checking live batch")
}

func TestSourceDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := NewSource[string, int](nil)
	ch := src.Connect(ctx)
	assert.Equal(t, 1, src.Subscribers(), "checking subscribers")

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "checking channel is closed")
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for close")
	}
	assert.Equal(t, 0, src.Subscribers(), "checking subscribers")

	// publishing without subscribers is fine
	src.Edit(func(u *cache.Updater[string, int]) {
		u.AddOrUpdate(1, "a")
	})
}

func TestSourceConcurrentWriters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewSource[string, int](nil)
	early := src.Connect(ctx)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		published int
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				key := fmt.Sprintf("key-%d", (w*7+i)%20)
				cs := src.Edit(func(u *cache.Updater[string, int]) {
					if i%5 == 4 {
						u.Remove(key)
						return
					}
					u.AddOrUpdate(w*100+i, key)
				})
				if !cs.IsEmpty() {
					mu.Lock()
					published++
					mu.Unlock()
				}
			}
		}(w)
	}
	wg.Wait()

	mirror := cache.New[string, int]()
	for i := 0; i < published; i++ {
		require.Nil(t, mirror.Clone(receive(t, early)), "checking clone")
	}
	assert.Equal(t, src.KeyValues(), mirror.KeyValues(), "checking replayed state")

	// a late subscriber starts from the snapshot
	late := src.Connect(ctx)
	if src.Count() > 0 {
		replayed := cache.New[string, int]()
		require.Nil(t, replayed.Clone(receive(t, late)), "checking clone")
		assert.Equal(t, src.KeyValues(), replayed.KeyValues(), "checking snapshot state")
	}
}
