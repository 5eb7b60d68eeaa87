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

	"github.com/api7/rxcache/changeset"
)

// Comparer orders values. It returns a negative number when a sorts before
// b, a positive number when a sorts after b and zero when they tie.
type Comparer[V any] func(a, b V) int

// Ascending orders values by the field extracted by by.
func Ascending[V any, T cmp.Ordered](by func(V) T) Comparer[V] {
	return func(a, b V) int {
		return cmp.Compare(by(a), by(b))
	}
}

// Descending orders values by the field extracted by by, largest first.
func Descending[V any, T cmp.Ordered](by func(V) T) Comparer[V] {
	return Ascending(by).Reverse()
}

// Reverse inverts the order.
func (c Comparer[V]) Reverse() Comparer[V] {
	return func(a, b V) int {
		return c(b, a)
	}
}

// ThenBy breaks ties of c with next.
func (c Comparer[V]) ThenBy(next Comparer[V]) Comparer[V] {
	return func(a, b V) int {
		if r := c(a, b); r != 0 {
			return r
		}
		return next(a, b)
	}
}

// KeyValueComparer orders key value pairs by value first, and by key when
// the values tie. Keys are unique, so the order is strict and total, which
// binary search relies on.
type KeyValueComparer[K cmp.Ordered, V any] struct {
	compare Comparer[V]
}

// NewKeyValueComparer wraps c. A nil c orders by key only.
func NewKeyValueComparer[K cmp.Ordered, V any](c Comparer[V]) *KeyValueComparer[K, V] {
	return &KeyValueComparer[K, V]{compare: c}
}

// Compare compares two pairs.
func (kc *KeyValueComparer[K, V]) Compare(x, y changeset.KeyValue[K, V]) int {
	if kc.compare != nil {
		if r := kc.compare(x.Value, y.Value); r != 0 {
			return r
		}
	}
	return cmp.Compare(x.Key, y.Key)
}
