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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyIndexRange(t *testing.T) {
	t.Parallel()

	t.Run("sub-test 1", func(t *testing.T) {
		t.Parallel()
		ki := newKeyIndex[string]()
		for _, k := range []string{"a", "b", "d", "e", "aa", "cc"} {
			ki.put(k)
		}

		// most left
		keys := ki.rangeKeys("0", "a")
		assert.Equal(t, []string{"a"}, keys, "checking keys")

		keys = ki.rangeKeys("b", "f")
		assert.Equal(t, []string{"b", "cc", "d", "e"}, keys, "checking keys")

		// most right
		keys = ki.rangeKeys("e", "xyz")
		assert.Equal(t, []string{"e"}, keys, "checking keys")

		// none
		keys = ki.rangeKeys("fff", "xyz")
		assert.Len(t, keys, 0, "checking number of keys")

		// startKey > endKey
		keys = ki.rangeKeys("b", "a")
		assert.Len(t, keys, 0, "checking number of keys")
	})
}

func TestKeyIndexList(t *testing.T) {
	t.Parallel()

	ki := newKeyIndex[string]()
	for _, k := range []string{"a", "b", "d", "e", "aa", "cc", "a"} {
		ki.put(k)
	}
	assert.Equal(t, 6, ki.len(), "checking number of keys")
	assert.Equal(t, []string{"a", "aa", "b", "cc", "d", "e"}, ki.list(), "checking order")

	ki.delete("cc")
	ki.delete("missing")
	assert.Equal(t, []string{"a", "aa", "b", "d", "e"}, ki.list(), "checking order after delete")

	ki.clear()
	assert.Equal(t, 0, ki.len(), "checking cleared index")
	assert.Empty(t, ki.list(), "checking cleared list")
}
