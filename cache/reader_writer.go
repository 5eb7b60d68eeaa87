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

package cache

import (
	"cmp"
	"sync"

	"github.com/api7/rxcache/changeset"
	"github.com/api7/rxcache/optional"
)

// Updater is the edit surface handed to ReaderWriter.Write callbacks. It is
// only valid inside the callback.
type Updater[K cmp.Ordered, V any] struct {
	cache *ChangeAwareCache[K, V]
}

// AddOrUpdate upserts item under key.
func (u *Updater[K, V]) AddOrUpdate(item V, key K) {
	u.cache.AddOrUpdate(item, key)
}

// Remove deletes key.
func (u *Updater[K, V]) Remove(keys ...K) {
	u.cache.RemoveKeys(keys...)
}

// Refresh marks keys for re-evaluation. Without keys every item is refreshed.
func (u *Updater[K, V]) Refresh(keys ...K) {
	if len(keys) == 0 {
		u.cache.RefreshAll()
		return
	}
	for _, key := range keys {
		u.cache.Refresh(key)
	}
}

// Clear removes everything.
func (u *Updater[K, V]) Clear() {
	u.cache.Clear()
}

// Clone replays cs.
func (u *Updater[K, V]) Clone(cs *changeset.ChangeSet[K, V]) error {
	return u.cache.Clone(cs)
}

// Lookup reads the value of key, including edits made earlier in the same
// callback.
func (u *Updater[K, V]) Lookup(key K) optional.Optional[V] {
	return u.cache.Lookup(key)
}

// ReaderWriter guards a ChangeAwareCache with a single RWMutex. Writes are
// serialized and every write returns exactly the changes it made. Reads may
// run concurrently with each other.
type ReaderWriter[K cmp.Ordered, V any] struct {
	mu    sync.RWMutex
	cache *ChangeAwareCache[K, V]
}

// NewReaderWriter returns an empty ReaderWriter.
func NewReaderWriter[K cmp.Ordered, V any]() *ReaderWriter[K, V] {
	return &ReaderWriter[K, V]{
		cache: New[K, V](),
	}
}

// Write runs fn under the write lock and captures the changes it made.
func (rw *ReaderWriter[K, V]) Write(fn func(*Updater[K, V])) *changeset.ChangeSet[K, V] {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.writeLocked(fn)
}

// WriteAndThen runs fn under the write lock, then calls then with the
// captured changes and the current snapshot while the lock is still held.
// It lets callers publish changes in exactly the order they were made.
func (rw *ReaderWriter[K, V]) WriteAndThen(fn func(*Updater[K, V]), then func(*changeset.ChangeSet[K, V])) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	then(rw.writeLocked(fn))
}

// Locked runs fn with the write lock held and the current state available as
// a snapshot. Nothing can be written while fn runs.
func (rw *ReaderWriter[K, V]) Locked(fn func(snapshot *changeset.ChangeSet[K, V])) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	fn(rw.cache.Snapshot())
}

func (rw *ReaderWriter[K, V]) writeLocked(fn func(*Updater[K, V])) *changeset.ChangeSet[K, V] {
	u := &Updater[K, V]{cache: rw.cache}
	fn(u)
	u.cache = nil
	return rw.cache.CaptureChanges()
}

// Lookup finds the value of key.
func (rw *ReaderWriter[K, V]) Lookup(key K) optional.Optional[V] {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.cache.Lookup(key)
}

// Keys returns all keys in ascending order.
func (rw *ReaderWriter[K, V]) Keys() []K {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.cache.Keys()
}

// Items returns all values in key order.
func (rw *ReaderWriter[K, V]) Items() []V {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.cache.Items()
}

// KeyValues returns all pairs in key order.
func (rw *ReaderWriter[K, V]) KeyValues() []changeset.KeyValue[K, V] {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.cache.KeyValues()
}

// Count returns the number of keys.
func (rw *ReaderWriter[K, V]) Count() int {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.cache.Count()
}

// Snapshot returns an Add change for every pair.
func (rw *ReaderWriter[K, V]) Snapshot() *changeset.ChangeSet[K, V] {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.cache.Snapshot()
}
