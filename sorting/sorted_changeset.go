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

// SortedChangeSet is a change set whose changes carry positions, together
// with the sorted list as it was right after the changes were applied.
//
// Emitted sets are never empty, except for SortReason Reset: a Reset may
// carry no change at all and must still be delivered, consumers reload the
// whole list from SortedItems.
type SortedChangeSet[K cmp.Ordered, V any] struct {
	*changeset.ChangeSet[K, V]

	reason SortReason
	items  []changeset.KeyValue[K, V]
}

// SortReason tells why the set was emitted.
func (s *SortedChangeSet[K, V]) SortReason() SortReason {
	return s.reason
}

// SortedItems returns the sorted list. A Reset set may come without any
// change, consumers reload from this list instead.
func (s *SortedChangeSet[K, V]) SortedItems() []changeset.KeyValue[K, V] {
	out := make([]changeset.KeyValue[K, V], len(s.items))
	copy(out, s.items)
	return out
}
