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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/api7/rxcache/changeset"
)

type person struct {
	name string
	age  int
}

func TestComparer(t *testing.T) {
	t.Parallel()

	byAge := Ascending(func(p person) int { return p.age })
	byName := Ascending(func(p person) string { return p.name })

	alice, bob, carol := person{"alice", 30}, person{"bob", 25}, person{"carol", 30}
	assert.Equal(t, 1, byAge(alice, bob), "checking ascending")
	assert.Equal(t, -1, byAge.Reverse()(alice, bob), "checking reverse")
	assert.Equal(t, -1, Descending(func(p person) int { return p.age })(alice, bob), "checking descending")
	assert.Equal(t, 0, byAge(alice, carol), "checking tie")
	assert.Equal(t, -1, byAge.ThenBy(byName)(alice, carol), "checking then by")
}

func TestKeyValueComparer(t *testing.T) {
	t.Parallel()

	kc := NewKeyValueComparer[string](Ascending(func(v int) int { return v }))
	assert.Equal(t, -1, kc.Compare(
		changeset.KeyValue[string, int]{Key: "z", Value: 1},
		changeset.KeyValue[string, int]{Key: "a", Value: 2},
	), "checking value first")
	assert.Equal(t, -1, kc.Compare(
		changeset.KeyValue[string, int]{Key: "a", Value: 2},
		changeset.KeyValue[string, int]{Key: "b", Value: 2},
	), "checking key tie break")
	assert.Equal(t, 0, kc.Compare(
		changeset.KeyValue[string, int]{Key: "a", Value: 2},
		changeset.KeyValue[string, int]{Key: "a", Value: 2},
	), "checking same pair")

	byKey := NewKeyValueComparer[int, string](nil)
	assert.Equal(t, 1, byKey.Compare(
		changeset.KeyValue[int, string]{Key: 2, Value: "a"},
		changeset.KeyValue[int, string]{Key: 1, Value: "b"},
	), "checking key only order")
}

func TestSortOptimisations(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", SortOptimisations(0).String())
	both := AssumeStablePositions | IgnoreRefreshMoves
	assert.True(t, both.Has(IgnoreRefreshMoves), "checking flag")
	assert.False(t, AssumeStablePositions.Has(both), "checking partial flags")
	assert.Equal(t, "assume_stable_positions|ignore_refresh_moves", both.String())
	assert.Equal(t, "reset", Reset.String())
	assert.Equal(t, "unknown", SortReason(0).String())
}
