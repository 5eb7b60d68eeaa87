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
	"sync"

	"go.uber.org/zap"

	"github.com/api7/rxcache/cache"
	"github.com/api7/rxcache/changeset"
	"github.com/api7/rxcache/optional"
)

// Source is a keyed collection whose changes are pushed to subscribers.
// Each subscriber sees the state at the time it connected as one batch of
// Adds, followed by every later non-empty batch in the order it was made.
type Source[K cmp.Ordered, V any] struct {
	rw     *cache.ReaderWriter[K, V]
	logger *zap.Logger

	mu          sync.Mutex
	nextID      int64
	subscribers subscriberSet[K, V]
}

// NewSource returns an empty Source. A nil logger disables logging.
func NewSource[K cmp.Ordered, V any](logger *zap.Logger) *Source[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source[K, V]{
		rw:          cache.NewReaderWriter[K, V](),
		logger:      logger,
		subscribers: make(subscriberSet[K, V]),
	}
}

// Edit applies fn atomically and publishes the changes it made. The
// captured change set is returned, it may be empty.
func (s *Source[K, V]) Edit(fn func(*cache.Updater[K, V])) *changeset.ChangeSet[K, V] {
	var captured *changeset.ChangeSet[K, V]
	s.rw.WriteAndThen(fn, func(cs *changeset.ChangeSet[K, V]) {
		captured = cs
		if cs.IsEmpty() {
			return
		}
		s.publish(cs)
	})
	return captured
}

// Connect subscribes to the source until ctx is done. The returned channel
// is closed afterwards.
func (s *Source[K, V]) Connect(ctx context.Context) <-chan *changeset.ChangeSet[K, V] {
	sub := newSubscriber[K, V]()
	s.rw.Locked(func(snapshot *changeset.ChangeSet[K, V]) {
		s.mu.Lock()
		sub.id = s.nextID
		s.nextID++
		s.subscribers.add(sub)
		s.mu.Unlock()

		if !snapshot.IsEmpty() {
			sub.push(snapshot)
		}
	})
	s.logger.Debug("subscriber connected",
		zap.Int64("id", sub.id),
	)

	go sub.listen(ctx, func() {
		s.mu.Lock()
		s.subscribers.delete(sub)
		s.mu.Unlock()
		s.logger.Debug("subscriber disconnected",
			zap.Int64("id", sub.id),
			zap.Error(ctx.Err()),
		)
	})
	return sub.out
}

// Subscribers returns the number of connected subscribers.
func (s *Source[K, V]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Lookup finds the value of key.
func (s *Source[K, V]) Lookup(key K) optional.Optional[V] {
	return s.rw.Lookup(key)
}

// Count returns the number of items.
func (s *Source[K, V]) Count() int {
	return s.rw.Count()
}

// KeyValues returns all items in key order.
func (s *Source[K, V]) KeyValues() []changeset.KeyValue[K, V] {
	return s.rw.KeyValues()
}

// publish must be called with the cache write lock held.
func (s *Source[K, V]) publish(cs *changeset.ChangeSet[K, V]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		sub.push(cs)
	}
	s.logger.Debug("change set published",
		zap.Int("changes", cs.Len()),
		zap.Int("subscribers", len(s.subscribers)),
	)
}
