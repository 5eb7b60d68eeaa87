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

	"github.com/google/btree"
)

// keyIndex keeps the cache keys in ascending order so that whole-cache
// operations (Clear, RefreshAll, Keys) have a deterministic order and key
// ranges can be scanned.
// Note this implementation is not thread-safe.
type keyIndex[K cmp.Ordered] struct {
	tree *btree.BTreeG[K]
}

func newKeyIndex[K cmp.Ordered]() *keyIndex[K] {
	return &keyIndex[K]{
		tree: btree.NewG[K](32, cmp.Less[K]),
	}
}

func (ki *keyIndex[K]) put(key K) {
	ki.tree.ReplaceOrInsert(key)
}

func (ki *keyIndex[K]) delete(key K) {
	ki.tree.Delete(key)
}

func (ki *keyIndex[K]) len() int {
	return ki.tree.Len()
}

func (ki *keyIndex[K]) clear() {
	ki.tree.Clear(false)
}

// rangeKeys returns keys in [startKey, endKey], both ends included.
func (ki *keyIndex[K]) rangeKeys(startKey, endKey K) []K {
	var keys []K
	ki.tree.AscendGreaterOrEqual(startKey, func(curr K) bool {
		if cmp.Less(endKey, curr) {
			return false
		}
		keys = append(keys, curr)
		return true
	})
	return keys
}

func (ki *keyIndex[K]) list() []K {
	keys := make([]K, 0, ki.tree.Len())
	ki.tree.Ascend(func(k K) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}
