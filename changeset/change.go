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

package changeset

import (
	"fmt"

	"github.com/api7/rxcache/optional"
)

// Reason is the type of change kind.
type Reason int

const (
	// Add means the key was not present before.
	Add = Reason(iota + 1)
	// Update means the key was present and its value was replaced.
	Update
	// Remove means the key was deleted.
	Remove
	// Refresh means the value was mutated in place and downstream
	// operators should evaluate it again.
	Refresh
	// Moved means the value changed its position in a sorted projection.
	Moved
)

func (r Reason) String() string {
	switch r {
	case Add:
		return "add"
	case Update:
		return "update"
	case Remove:
		return "remove"
	case Refresh:
		return "refresh"
	case Moved:
		return "moved"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// NoIndex marks a change that does not belong to an ordered projection.
const NoIndex = -1

// KeyValue pairs an entity with its key.
type KeyValue[K comparable, V any] struct {
	Key   K
	Value V
}

// Change describes a single mutation of a keyed entity.
type Change[K comparable, V any] struct {
	Reason  Reason
	Key     K
	Current V
	// Previous is present for Update and Moved only.
	Previous      optional.Optional[V]
	CurrentIndex  int
	PreviousIndex int
}

// NewChange creates an Add, Remove or Refresh change without position.
func NewChange[K comparable, V any](reason Reason, key K, current V) Change[K, V] {
	return NewIndexedChange(reason, key, current, NoIndex)
}

// NewIndexedChange creates an Add, Remove or Refresh change at the given position.
func NewIndexedChange[K comparable, V any](reason Reason, key K, current V, index int) Change[K, V] {
	return Change[K, V]{
		Reason:        reason,
		Key:           key,
		Current:       current,
		CurrentIndex:  index,
		PreviousIndex: NoIndex,
	}
}

// NewUpdate creates an Update change without position.
func NewUpdate[K comparable, V any](key K, current, previous V) Change[K, V] {
	return NewIndexedUpdate(key, current, previous, NoIndex, NoIndex)
}

// NewIndexedUpdate creates an Update change that moved from previousIndex to
// currentIndex.
func NewIndexedUpdate[K comparable, V any](key K, current, previous V, currentIndex, previousIndex int) Change[K, V] {
	return Change[K, V]{
		Reason:        Update,
		Key:           key,
		Current:       current,
		Previous:      optional.Some(previous),
		CurrentIndex:  currentIndex,
		PreviousIndex: previousIndex,
	}
}

// NewMove creates a Moved change. Both indices must be valid and different.
func NewMove[K comparable, V any](key K, current V, currentIndex, previousIndex int) Change[K, V] {
	if currentIndex < 0 || previousIndex < 0 {
		panic("move requires both indices")
	}
	if currentIndex == previousIndex {
		panic("move requires different indices")
	}
	return Change[K, V]{
		Reason:        Moved,
		Key:           key,
		Current:       current,
		Previous:      optional.Some(current),
		CurrentIndex:  currentIndex,
		PreviousIndex: previousIndex,
	}
}

// Indexed reports whether the change carries a position.
func (c Change[K, V]) Indexed() bool {
	return c.CurrentIndex != NoIndex
}

func (c Change[K, V]) String() string {
	prev, ok := c.Previous.Value()
	if !ok {
		return fmt.Sprintf("%s(%v, %v, index=%d)", c.Reason, c.Key, c.Current, c.CurrentIndex)
	}
	return fmt.Sprintf("%s(%v, %v, previous=%v, index=%d, previous_index=%d)",
		c.Reason, c.Key, c.Current, prev, c.CurrentIndex, c.PreviousIndex)
}
