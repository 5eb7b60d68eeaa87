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
	"errors"
	"fmt"
)

var (
	// ErrNilChangeSet means a nil change set was handed to an operation that
	// requires one.
	ErrNilChangeSet = errors.New("change set is nil")
	// ErrNilComparer means a comparer is mandatory but was not supplied.
	ErrNilComparer = errors.New("comparer is nil")
)

// SortError means an ordered projection could not find an item at the
// position where the comparer says it must be. This happens when the comparer
// is not a stable total order, or values were mutated without a Refresh.
// The projection is unusable after a SortError.
type SortError struct {
	Key    any
	Reason Reason
	Op     string
	Msg    string
}

func (e *SortError) Error() string {
	return fmt.Sprintf("sort: %s %s for key %v: %s", e.Op, e.Reason, e.Key, e.Msg)
}

// MissingKeyError means an Update, Remove or Refresh arrived for a key the
// structure has no record of.
type MissingKeyError struct {
	Key    any
	Reason Reason
	Op     string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: key %v is missing for %s", e.Op, e.Key, e.Reason)
}
