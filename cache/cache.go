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

	"github.com/api7/rxcache/changeset"
	"github.com/api7/rxcache/optional"
)

// ChangeAwareCache is a keyed store that records every mutation as a
// changeset.Change. Recorded changes are handed out, and forgotten, by
// CaptureChanges.
//
// ChangeAwareCache is not thread-safe, callers serialize access to it (see
// ReaderWriter).
type ChangeAwareCache[K cmp.Ordered, V any] struct {
	data    map[K]V
	index   *keyIndex[K]
	changes changeset.Builder[K, V]
}

// New returns an empty ChangeAwareCache.
func New[K cmp.Ordered, V any]() *ChangeAwareCache[K, V] {
	return &ChangeAwareCache[K, V]{
		data:  make(map[K]V),
		index: newKeyIndex[K](),
	}
}

// NewFrom returns a ChangeAwareCache holding items without any pending change.
func NewFrom[K cmp.Ordered, V any](items map[K]V) *ChangeAwareCache[K, V] {
	c := New[K, V]()
	for k, v := range items {
		c.data[k] = v
		c.index.put(k)
	}
	return c
}

// Lookup finds the value of key.
func (c *ChangeAwareCache[K, V]) Lookup(key K) optional.Optional[V] {
	v, ok := c.data[key]
	return optional.FromPair(v, ok)
}

// AddOrUpdate records an Add if key is new, an Update carrying the old value
// otherwise.
func (c *ChangeAwareCache[K, V]) AddOrUpdate(item V, key K) {
	if old, ok := c.data[key]; ok {
		c.changes.Append(changeset.NewUpdate(key, item, old))
	} else {
		c.changes.Append(changeset.NewChange(changeset.Add, key, item))
		c.index.put(key)
	}
	c.data[key] = item
}

// AddOrUpdateMany calls AddOrUpdate for every pair in order.
func (c *ChangeAwareCache[K, V]) AddOrUpdateMany(items []changeset.KeyValue[K, V]) {
	for _, kv := range items {
		c.AddOrUpdate(kv.Value, kv.Key)
	}
}

// Remove deletes key and records a Remove carrying the removed value.
// Removing a missing key does nothing.
func (c *ChangeAwareCache[K, V]) Remove(key K) {
	old, ok := c.data[key]
	if !ok {
		return
	}
	c.changes.Append(changeset.NewChange(changeset.Remove, key, old))
	delete(c.data, key)
	c.index.delete(key)
}

// RemoveKeys removes every key in order.
func (c *ChangeAwareCache[K, V]) RemoveKeys(keys ...K) {
	for _, key := range keys {
		c.Remove(key)
	}
}

// Refresh records a Refresh for key without touching the stored value.
// Refreshing a missing key does nothing.
func (c *ChangeAwareCache[K, V]) Refresh(key K) {
	v, ok := c.data[key]
	if !ok {
		return
	}
	c.changes.Append(changeset.NewChange(changeset.Refresh, key, v))
}

// RefreshAll records a Refresh for every key, in key order.
func (c *ChangeAwareCache[K, V]) RefreshAll() {
	for _, key := range c.index.list() {
		c.changes.Append(changeset.NewChange(changeset.Refresh, key, c.data[key]))
	}
}

// Clear records a Remove for every key, in key order, then empties the cache.
func (c *ChangeAwareCache[K, V]) Clear() {
	for _, key := range c.index.list() {
		c.changes.Append(changeset.NewChange(changeset.Remove, key, c.data[key]))
	}
	c.data = make(map[K]V)
	c.index.clear()
}

// Clone replays cs against the cache so it mirrors the cache cs was
// captured from.
func (c *ChangeAwareCache[K, V]) Clone(cs *changeset.ChangeSet[K, V]) error {
	if cs == nil {
		return changeset.ErrNilChangeSet
	}
	cs.Each(func(change changeset.Change[K, V]) bool {
		switch change.Reason {
		case changeset.Add, changeset.Update:
			c.AddOrUpdate(change.Current, change.Key)
		case changeset.Remove:
			c.Remove(change.Key)
		case changeset.Refresh:
			c.Refresh(change.Key)
		}
		return true
	})
	return nil
}

// CaptureChanges returns the changes recorded since the last capture and
// forgets them. It returns an empty set, never nil, if nothing changed.
func (c *ChangeAwareCache[K, V]) CaptureChanges() *changeset.ChangeSet[K, V] {
	return c.changes.Build()
}

// Count returns the number of keys.
func (c *ChangeAwareCache[K, V]) Count() int {
	return len(c.data)
}

// Keys returns all keys in ascending order.
func (c *ChangeAwareCache[K, V]) Keys() []K {
	return c.index.list()
}

// Items returns all values in key order.
func (c *ChangeAwareCache[K, V]) Items() []V {
	items := make([]V, 0, len(c.data))
	for _, key := range c.index.list() {
		items = append(items, c.data[key])
	}
	return items
}

// KeyValues returns all pairs in key order.
func (c *ChangeAwareCache[K, V]) KeyValues() []changeset.KeyValue[K, V] {
	kvs := make([]changeset.KeyValue[K, V], 0, len(c.data))
	for _, key := range c.index.list() {
		kvs = append(kvs, changeset.KeyValue[K, V]{Key: key, Value: c.data[key]})
	}
	return kvs
}

// Range returns the pairs whose key is in [startKey, endKey].
func (c *ChangeAwareCache[K, V]) Range(startKey, endKey K) []changeset.KeyValue[K, V] {
	keys := c.index.rangeKeys(startKey, endKey)
	kvs := make([]changeset.KeyValue[K, V], 0, len(keys))
	for _, key := range keys {
		kvs = append(kvs, changeset.KeyValue[K, V]{Key: key, Value: c.data[key]})
	}
	return kvs
}

// Snapshot returns an Add change for every pair, in key order. It does not
// touch the pending changes.
func (c *ChangeAwareCache[K, V]) Snapshot() *changeset.ChangeSet[K, V] {
	b := changeset.NewBuilder[K, V](len(c.data))
	for _, key := range c.index.list() {
		b.Append(changeset.NewChange(changeset.Add, key, c.data[key]))
	}
	return b.Build()
}
