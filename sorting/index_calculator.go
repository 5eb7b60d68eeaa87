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
	"slices"
	"sort"

	"github.com/api7/rxcache/changeset"
)

const opCalculate = "calculate"

// IndexCalculator keeps a list of key value pairs sorted by a
// KeyValueComparer and turns change sets into positioned change sets.
//
// IndexCalculator is not thread-safe.
type IndexCalculator[K cmp.Ordered, V any] struct {
	comparer      *KeyValueComparer[K, V]
	optimisations SortOptimisations

	list []changeset.KeyValue[K, V]
	// values holds the value each key was placed into list with.
	values map[K]V
}

// NewIndexCalculator returns an empty calculator.
func NewIndexCalculator[K cmp.Ordered, V any](comparer *KeyValueComparer[K, V], optimisations SortOptimisations) (*IndexCalculator[K, V], error) {
	if comparer == nil {
		return nil, changeset.ErrNilComparer
	}
	return &IndexCalculator[K, V]{
		comparer:      comparer,
		optimisations: optimisations,
		values:        make(map[K]V),
	}, nil
}

// Comparer returns the active comparer.
func (ic *IndexCalculator[K, V]) Comparer() *KeyValueComparer[K, V] {
	return ic.comparer
}

// Optimisations returns the flags the calculator was built with.
func (ic *IndexCalculator[K, V]) Optimisations() SortOptimisations {
	return ic.optimisations
}

// Len returns the number of sorted items.
func (ic *IndexCalculator[K, V]) Len() int {
	return len(ic.list)
}

// List returns a copy of the sorted list.
func (ic *IndexCalculator[K, V]) List() []changeset.KeyValue[K, V] {
	return slices.Clone(ic.list)
}

// Load sorts items into the list, replacing whatever was there, and returns
// an Add for every item at its position.
func (ic *IndexCalculator[K, V]) Load(items []changeset.KeyValue[K, V]) *changeset.ChangeSet[K, V] {
	ic.rebuild(items)
	b := changeset.NewBuilder[K, V](len(ic.list))
	for i, kv := range ic.list {
		b.Append(changeset.NewIndexedChange(changeset.Add, kv.Key, kv.Value, i))
	}
	return b.Build()
}

// Reset sorts items into the list, replacing whatever was there, without
// reporting anything.
func (ic *IndexCalculator[K, V]) Reset(items []changeset.KeyValue[K, V]) {
	ic.rebuild(items)
}

func (ic *IndexCalculator[K, V]) rebuild(items []changeset.KeyValue[K, V]) {
	ic.list = slices.Clone(items)
	slices.SortFunc(ic.list, ic.comparer.Compare)
	ic.values = make(map[K]V, len(ic.list))
	for _, kv := range ic.list {
		ic.values[kv.Key] = kv.Value
	}
}

// ChangeComparer swaps the comparer. The list is not touched, callers follow
// up with Reorder or Reset.
func (ic *IndexCalculator[K, V]) ChangeComparer(comparer *KeyValueComparer[K, V]) error {
	if comparer == nil {
		return changeset.ErrNilComparer
	}
	ic.comparer = comparer
	return nil
}

// Reorder sorts the list again under the current comparer and returns the
// moves that turn the old order into the new one. Items that are already in
// increasing order relative to each other stay put, so the number of moves is
// minimal. The boolean reports whether the order changed at all. With
// IgnoreRefreshMoves the list is rebuilt and no move is reported.
func (ic *IndexCalculator[K, V]) Reorder() (*changeset.ChangeSet[K, V], bool) {
	sorted := slices.Clone(ic.list)
	slices.SortFunc(sorted, ic.comparer.Compare)
	sameOrder := slices.EqualFunc(ic.list, sorted, func(a, b changeset.KeyValue[K, V]) bool {
		return a.Key == b.Key
	})
	if sameOrder {
		return changeset.Empty[K, V](), false
	}
	if ic.optimisations.Has(IgnoreRefreshMoves) {
		ic.list = sorted
		return changeset.Empty[K, V](), true
	}

	rank := ranks(sorted)
	seq := make([]int, len(ic.list))
	for i, kv := range ic.list {
		seq[i] = rank[kv.Key]
	}
	keep := longestIncreasing(seq)
	var movers []K
	for _, kv := range sorted {
		if _, ok := keep[rank[kv.Key]]; !ok {
			movers = append(movers, kv.Key)
		}
	}

	var b changeset.Builder[K, V]
	// every key comes from the list itself, settle cannot fail.
	_ = ic.settle(sorted, rank, movers, &b)
	return b.Build(), true
}

// Calculate applies cs to the list and returns the positioned changes.
// Adds, Updates and Removes are applied in order; Refreshes are evaluated
// afterwards and only produce Moves for items whose position changed.
//
// A *changeset.SortError or *changeset.MissingKeyError leaves the list in
// an undefined state, the calculator must not be used afterwards.
func (ic *IndexCalculator[K, V]) Calculate(cs *changeset.ChangeSet[K, V]) (*changeset.ChangeSet[K, V], error) {
	if cs == nil {
		return nil, changeset.ErrNilChangeSet
	}

	var (
		b         = changeset.NewBuilder[K, V](cs.Len())
		refreshes []changeset.Change[K, V]
		// refreshed holds keys whose last change in the batch is a Refresh.
		refreshed = make(map[K]struct{})
		err       error
	)
	cs.Each(func(c changeset.Change[K, V]) bool {
		switch c.Reason {
		case changeset.Add:
			err = ic.add(c, b)
		case changeset.Update:
			err = ic.update(c, b)
		case changeset.Remove:
			err = ic.remove(c, b)
		case changeset.Refresh:
			refreshes = append(refreshes, c)
			refreshed[c.Key] = struct{}{}
			return true
		default:
			return true
		}
		delete(refreshed, c.Key)
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	if len(refreshed) > 0 && !ic.optimisations.Has(IgnoreRefreshMoves) {
		// a later Add, Update or Remove already placed the key.
		live := refreshes[:0]
		for _, c := range refreshes {
			if _, ok := refreshed[c.Key]; ok {
				live = append(live, c)
			}
		}
		if err := ic.refresh(live, b); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func (ic *IndexCalculator[K, V]) add(c changeset.Change[K, V], b *changeset.Builder[K, V]) error {
	if _, ok := ic.values[c.Key]; ok {
		return &changeset.SortError{Key: c.Key, Reason: c.Reason, Op: opCalculate, Msg: "key is already in the sorted list"}
	}
	kv := changeset.KeyValue[K, V]{Key: c.Key, Value: c.Current}
	pos, err := ic.insertPosition(kv, c.Reason)
	if err != nil {
		return err
	}
	ic.insertAt(pos, kv)
	b.Append(changeset.NewIndexedChange(changeset.Add, c.Key, c.Current, pos))
	return nil
}

func (ic *IndexCalculator[K, V]) update(c changeset.Change[K, V], b *changeset.Builder[K, V]) error {
	old, err := ic.locate(c.Key, c.Reason)
	if err != nil {
		return err
	}
	previous := c.Previous.ValueOr(ic.values[c.Key])
	ic.removeAt(old)

	kv := changeset.KeyValue[K, V]{Key: c.Key, Value: c.Current}
	pos, err := ic.insertPosition(kv, c.Reason)
	if err != nil {
		return err
	}
	ic.insertAt(pos, kv)
	b.Append(changeset.NewIndexedUpdate(c.Key, c.Current, previous, pos, old))
	return nil
}

func (ic *IndexCalculator[K, V]) remove(c changeset.Change[K, V], b *changeset.Builder[K, V]) error {
	old, err := ic.locate(c.Key, c.Reason)
	if err != nil {
		return err
	}
	ic.removeAt(old)
	b.Append(changeset.NewIndexedChange(changeset.Remove, c.Key, c.Current, old))
	return nil
}

// refresh moves refreshed items to where the comparer now wants them.
//
// The target order is computed once for the whole batch: refreshed items are
// taken out, the rest of the list is still sorted, and every refreshed item
// is inserted back with binary search. Several refreshed items in one batch
// may overlap, settle copes with that.
func (ic *IndexCalculator[K, V]) refresh(refreshes []changeset.Change[K, V], b *changeset.Builder[K, V]) error {
	var (
		order   = make([]K, 0, len(refreshes))
		pending = make(map[K]V, len(refreshes))
	)
	for _, c := range refreshes {
		if _, ok := ic.values[c.Key]; !ok {
			return &changeset.MissingKeyError{Key: c.Key, Reason: c.Reason, Op: opCalculate}
		}
		if _, seen := pending[c.Key]; !seen {
			order = append(order, c.Key)
		}
		pending[c.Key] = c.Current
	}

	target := make([]changeset.KeyValue[K, V], 0, len(ic.list))
	for _, kv := range ic.list {
		if _, ok := pending[kv.Key]; !ok {
			target = append(target, kv)
		}
	}
	for _, key := range order {
		kv := changeset.KeyValue[K, V]{Key: key, Value: pending[key]}
		pos, found := slices.BinarySearchFunc(target, kv, ic.comparer.Compare)
		if found {
			return &changeset.SortError{Key: key, Reason: changeset.Refresh, Op: opCalculate, Msg: "key is already in the target order"}
		}
		target = slices.Insert(target, pos, kv)
	}
	return ic.settle(target, ranks(target), order, b)
}

// settle moves every key of movers, one at a time, to sit right behind the
// last settled item that precedes it in target. Items not in movers are
// settled from the start and must already be in target order relative to
// each other. Once all movers are processed the list equals target, and
// the emitted moves replay in sequence.
func (ic *IndexCalculator[K, V]) settle(target []changeset.KeyValue[K, V], rank map[K]int, movers []K, b *changeset.Builder[K, V]) error {
	unsettled := make(map[K]struct{}, len(movers))
	for _, key := range movers {
		unsettled[key] = struct{}{}
	}
	for _, key := range movers {
		old := slices.IndexFunc(ic.list, func(e changeset.KeyValue[K, V]) bool {
			return e.Key == key
		})
		if old < 0 {
			return &changeset.SortError{Key: key, Reason: changeset.Moved, Op: "settle", Msg: "item is not in the sorted list"}
		}
		ic.removeAt(old)
		delete(unsettled, key)

		pos := 0
		for i := len(ic.list) - 1; i >= 0; i-- {
			e := ic.list[i]
			if _, ok := unsettled[e.Key]; ok {
				continue
			}
			if rank[e.Key] < rank[key] {
				pos = i + 1
				break
			}
		}
		value := target[rank[key]].Value
		ic.insertAt(pos, changeset.KeyValue[K, V]{Key: key, Value: value})
		if pos != old {
			b.Append(changeset.NewMove(key, value, pos, old))
		}
	}
	return nil
}

func ranks[K cmp.Ordered, V any](list []changeset.KeyValue[K, V]) map[K]int {
	rank := make(map[K]int, len(list))
	for i, kv := range list {
		rank[kv.Key] = i
	}
	return rank
}

// longestIncreasing returns the values of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) map[int]struct{} {
	var (
		tails = make([]int, 0, len(seq))
		prev  = make([]int, len(seq))
	)
	for i, v := range seq {
		j := sort.Search(len(tails), func(k int) bool {
			return seq[tails[k]] >= v
		})
		prev[i] = -1
		if j > 0 {
			prev[i] = tails[j-1]
		}
		if j == len(tails) {
			tails = append(tails, i)
		} else {
			tails[j] = i
		}
	}
	keep := make(map[int]struct{}, len(tails))
	if len(tails) == 0 {
		return keep
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		keep[seq[i]] = struct{}{}
	}
	return keep
}

// locate finds the position of key. Binary search with the value the key was
// placed with is tried first; unless AssumeStablePositions is set, a miss
// falls back to a linear scan.
func (ic *IndexCalculator[K, V]) locate(key K, reason changeset.Reason) (int, error) {
	v, ok := ic.values[key]
	if !ok {
		return -1, &changeset.MissingKeyError{Key: key, Reason: reason, Op: opCalculate}
	}
	target := changeset.KeyValue[K, V]{Key: key, Value: v}
	idx, found := slices.BinarySearchFunc(ic.list, target, ic.comparer.Compare)
	if found && ic.list[idx].Key == key {
		return idx, nil
	}
	if ic.optimisations.Has(AssumeStablePositions) {
		return -1, &changeset.SortError{
			Key:    key,
			Reason: reason,
			Op:     opCalculate,
			Msg:    "binary search missed the item, values are not stable under the comparer",
		}
	}
	idx = slices.IndexFunc(ic.list, func(e changeset.KeyValue[K, V]) bool {
		return e.Key == key
	})
	if idx < 0 {
		return -1, &changeset.SortError{Key: key, Reason: reason, Op: opCalculate, Msg: "item is not in the sorted list"}
	}
	return idx, nil
}

func (ic *IndexCalculator[K, V]) insertPosition(kv changeset.KeyValue[K, V], reason changeset.Reason) (int, error) {
	pos, found := slices.BinarySearchFunc(ic.list, kv, ic.comparer.Compare)
	if found {
		return -1, &changeset.SortError{Key: kv.Key, Reason: reason, Op: opCalculate, Msg: "insert position is taken by the same key"}
	}
	return pos, nil
}

func (ic *IndexCalculator[K, V]) insertAt(pos int, kv changeset.KeyValue[K, V]) {
	ic.list = slices.Insert(ic.list, pos, kv)
	ic.values[kv.Key] = kv.Value
}

func (ic *IndexCalculator[K, V]) removeAt(pos int) {
	delete(ic.values, ic.list[pos].Key)
	ic.list = slices.Delete(ic.list, pos, pos+1)
}
