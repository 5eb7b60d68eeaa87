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

import "strings"

// SortOptimisations trade guarantees on the values for speed.
type SortOptimisations uint8

const (
	// AssumeStablePositions declares that values never change in a way the
	// comparer can observe without an Update, so a value can always be
	// found again with binary search. Without it, a failed binary search
	// falls back to a linear scan by key.
	AssumeStablePositions = SortOptimisations(1 << iota)
	// IgnoreRefreshMoves skips positional work for Refresh changes and
	// makes Reorder rebuild the list without reporting moves. A value
	// mutated in place and refreshed stays where it was, so the list may
	// be out of order, and later inserts land by binary search over it,
	// until the next Reorder.
	IgnoreRefreshMoves
)

// Has reports whether all flags in o are set.
func (so SortOptimisations) Has(o SortOptimisations) bool {
	return so&o == o
}

func (so SortOptimisations) String() string {
	if so == 0 {
		return "none"
	}
	var names []string
	if so.Has(AssumeStablePositions) {
		names = append(names, "assume_stable_positions")
	}
	if so.Has(IgnoreRefreshMoves) {
		names = append(names, "ignore_refresh_moves")
	}
	return strings.Join(names, "|")
}

// SortReason tells why a sorted change set was emitted.
type SortReason int

const (
	// InitialLoad is the first emission after both data and a comparer
	// are known.
	InitialLoad = SortReason(iota + 1)
	// ComparerChanged follows a comparer swap.
	ComparerChanged
	// DataChanged follows ordinary data changes.
	DataChanged
	// Reorder follows an explicit re-sort request.
	Reorder
	// Reset means the list was rebuilt without positional changes,
	// consumers should reload it from SortedItems.
	Reset
)

func (r SortReason) String() string {
	switch r {
	case InitialLoad:
		return "initial_load"
	case ComparerChanged:
		return "comparer_changed"
	case DataChanged:
		return "data_changed"
	case Reorder:
		return "reorder"
	case Reset:
		return "reset"
	default:
		return "unknown"
	}
}
