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

import "github.com/api7/rxcache/optional"

// Reduce folds next into previous, both changes being for the same key, and
// returns the net effect. None means the two changes cancel out.
func Reduce[K comparable, V any](previous optional.Optional[Change[K, V]], next Change[K, V]) optional.Optional[Change[K, V]] {
	prev, ok := previous.Value()
	if !ok {
		return optional.Some(next)
	}

	switch {
	case prev.Reason == Add && next.Reason == Remove:
		// the observer never saw the item.
		return optional.None[Change[K, V]]()

	case prev.Reason == Remove && next.Reason == Add:
		return optional.Some(NewIndexedUpdate(next.Key, next.Current, prev.Current,
			next.CurrentIndex, prev.CurrentIndex))

	case prev.Reason == Add && next.Reason == Update:
		return optional.Some(NewIndexedChange(Add, next.Key, next.Current, next.CurrentIndex))

	case prev.Reason == Update && next.Reason == Update:
		return optional.Some(NewIndexedUpdate(next.Key, next.Current, prev.Previous.ValueOr(prev.Current),
			next.CurrentIndex, prev.PreviousIndex))

	case prev.Reason == Add && next.Reason == Refresh:
		return optional.Some(NewIndexedChange(Add, next.Key, next.Current, prev.CurrentIndex))

	case prev.Reason == Update && next.Reason == Refresh:
		return optional.Some(NewIndexedUpdate(next.Key, next.Current, prev.Previous.ValueOr(prev.Current),
			prev.CurrentIndex, prev.PreviousIndex))
	}
	return optional.Some(next)
}

// ReduceChangeSet compacts cs so that every key appears at most once. Keys
// keep the position of their first appearance.
func ReduceChangeSet[K comparable, V any](cs *ChangeSet[K, V]) *ChangeSet[K, V] {
	if cs == nil || cs.Len() < 2 {
		return cs
	}

	var (
		order   = make([]K, 0, cs.Len())
		reduced = make(map[K]optional.Optional[Change[K, V]], cs.Len())
	)
	for _, c := range cs.changes {
		prev, seen := reduced[c.Key]
		if !seen {
			order = append(order, c.Key)
		}
		reduced[c.Key] = Reduce(prev, c)
	}
	if len(order) == cs.Len() {
		return cs
	}

	b := NewBuilder[K, V](len(order))
	for _, key := range order {
		if c, ok := reduced[key].Value(); ok {
			b.Append(c)
		}
	}
	return b.Build()
}
