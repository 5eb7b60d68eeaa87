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

	"github.com/api7/rxcache/changeset"
)

// subscriber owns an unbounded queue so that publishing never blocks the
// writer, and a goroutine that drains the queue in order.
type subscriber[K cmp.Ordered, V any] struct {
	id     int64
	mu     sync.Mutex
	queue  []*changeset.ChangeSet[K, V]
	notify chan struct{}
	out    chan *changeset.ChangeSet[K, V]
}

func newSubscriber[K cmp.Ordered, V any]() *subscriber[K, V] {
	return &subscriber[K, V]{
		notify: make(chan struct{}, 1),
		out:    make(chan *changeset.ChangeSet[K, V]),
	}
}

func (sub *subscriber[K, V]) push(cs *changeset.ChangeSet[K, V]) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, cs)
	sub.mu.Unlock()

	select {
	case sub.notify <- struct{}{}:
	default:
	}
}

func (sub *subscriber[K, V]) take() []*changeset.ChangeSet[K, V] {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	pending := sub.queue
	sub.queue = nil
	return pending
}

func (sub *subscriber[K, V]) listen(ctx context.Context, done func()) {
	defer close(sub.out)
	defer done()
	for {
		for _, cs := range sub.take() {
			select {
			case <-ctx.Done():
				return
			case sub.out <- cs:
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-sub.notify:
		}
	}
}

type subscriberSet[K cmp.Ordered, V any] map[*subscriber[K, V]]struct{}

func (set subscriberSet[K, V]) add(sub *subscriber[K, V]) {
	if _, ok := set[sub]; ok {
		panic("add subscriber repeatedly")
	}
	set[sub] = struct{}{}
}

func (set subscriberSet[K, V]) delete(sub *subscriber[K, V]) {
	if _, ok := set[sub]; !ok {
		panic("removing missing subscriber")
	}
	delete(set, sub)
}
