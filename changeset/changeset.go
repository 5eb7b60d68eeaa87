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

import "strings"

// ChangeSet is an ordered batch of changes. Changes must be applied in
// sequence, the same key may appear more than once.
// A ChangeSet is never modified after it is handed out.
type ChangeSet[K comparable, V any] struct {
	changes []Change[K, V]

	adds, updates, removes, refreshes, moves int
}

// New builds a ChangeSet from the given changes. The slice is copied.
func New[K comparable, V any](changes ...Change[K, V]) *ChangeSet[K, V] {
	cs := &ChangeSet[K, V]{
		changes: make([]Change[K, V], len(changes)),
	}
	copy(cs.changes, changes)
	cs.count()
	return cs
}

// Empty returns a ChangeSet without any change.
func Empty[K comparable, V any]() *ChangeSet[K, V] {
	return &ChangeSet[K, V]{}
}

// wrap takes ownership of changes without copying.
func wrap[K comparable, V any](changes []Change[K, V]) *ChangeSet[K, V] {
	cs := &ChangeSet[K, V]{changes: changes}
	cs.count()
	return cs
}

func (cs *ChangeSet[K, V]) count() {
	for _, c := range cs.changes {
		switch c.Reason {
		case Add:
			cs.adds++
		case Update:
			cs.updates++
		case Remove:
			cs.removes++
		case Refresh:
			cs.refreshes++
		case Moved:
			cs.moves++
		}
	}
}

// Len returns the number of changes.
func (cs *ChangeSet[K, V]) Len() int {
	return len(cs.changes)
}

// IsEmpty reports whether the set has no change.
func (cs *ChangeSet[K, V]) IsEmpty() bool {
	return len(cs.changes) == 0
}

// At returns the i-th change.
func (cs *ChangeSet[K, V]) At(i int) Change[K, V] {
	return cs.changes[i]
}

// Changes returns a copy of the changes in order.
func (cs *ChangeSet[K, V]) Changes() []Change[K, V] {
	out := make([]Change[K, V], len(cs.changes))
	copy(out, cs.changes)
	return out
}

// Each calls fn for every change in order until fn returns false.
func (cs *ChangeSet[K, V]) Each(fn func(Change[K, V]) bool) {
	for _, c := range cs.changes {
		if !fn(c) {
			return
		}
	}
}

func (cs *ChangeSet[K, V]) Adds() int      { return cs.adds }
func (cs *ChangeSet[K, V]) Updates() int   { return cs.updates }
func (cs *ChangeSet[K, V]) Removes() int   { return cs.removes }
func (cs *ChangeSet[K, V]) Refreshes() int { return cs.refreshes }
func (cs *ChangeSet[K, V]) Moves() int     { return cs.moves }

func (cs *ChangeSet[K, V]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range cs.changes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// Builder accumulates changes for a ChangeSet. The zero value is ready to use.
type Builder[K comparable, V any] struct {
	changes []Change[K, V]
}

// NewBuilder returns a Builder with room for capacity changes.
func NewBuilder[K comparable, V any](capacity int) *Builder[K, V] {
	return &Builder[K, V]{changes: make([]Change[K, V], 0, capacity)}
}

// Append records c.
func (b *Builder[K, V]) Append(c Change[K, V]) {
	b.changes = append(b.changes, c)
}

// Len returns the number of changes recorded so far.
func (b *Builder[K, V]) Len() int {
	return len(b.changes)
}

// Build hands the recorded changes over to a ChangeSet and resets the builder.
func (b *Builder[K, V]) Build() *ChangeSet[K, V] {
	if len(b.changes) == 0 {
		return Empty[K, V]()
	}
	cs := wrap(b.changes)
	b.changes = nil
	return cs
}
