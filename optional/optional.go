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

package optional

import "fmt"

// Optional carries a value that may be absent. The zero value is None.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps v into a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPair builds an Optional from the comma-ok idiom.
func FromPair[T any](v T, ok bool) Optional[T] {
	if !ok {
		return None[T]()
	}
	return Some(v)
}

// HasValue reports whether a value is present.
func (o Optional[T]) HasValue() bool {
	return o.ok
}

// Value returns the value and whether it is present.
func (o Optional[T]) Value() (T, bool) {
	return o.value, o.ok
}

// ValueOr returns the value, or def if absent.
func (o Optional[T]) ValueOr(def T) T {
	if !o.ok {
		return def
	}
	return o.value
}

// MustValue returns the value and panics if it is absent.
func (o Optional[T]) MustValue() T {
	if !o.ok {
		panic("optional: value is absent")
	}
	return o.value
}

func (o Optional[T]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}
