// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typeutil

// UniqueID is the type of the cluster-wide unique identifiers
// assigned to tables, tablets and servers by the catalog.
type UniqueID = int64

// Set is an unordered collection of comparable elements.
type Set[T comparable] map[T]struct{}

// NewSet returns a set containing the given elements.
func NewSet[T comparable](elements ...T) Set[T] {
	set := make(Set[T], len(elements))
	set.Insert(elements...)
	return set
}

// Insert adds the given elements to the set,
// elements already present are kept.
func (set Set[T]) Insert(elements ...T) {
	for i := range elements {
		set[elements[i]] = struct{}{}
	}
}

// Contain returns true if and only if all given elements are in the set.
func (set Set[T]) Contain(elements ...T) bool {
	for i := range elements {
		if _, ok := set[elements[i]]; !ok {
			return false
		}
	}
	return true
}

// Remove deletes the given elements from the set,
// absent elements are ignored.
func (set Set[T]) Remove(elements ...T) {
	for i := range elements {
		delete(set, elements[i])
	}
}

// Collect returns the elements of the set as a slice, in unspecified order.
func (set Set[T]) Collect() []T {
	elements := make([]T, 0, len(set))
	for element := range set {
		elements = append(elements, element)
	}
	return elements
}

// Clone returns a shallow copy of the set.
func (set Set[T]) Clone() Set[T] {
	ret := make(Set[T], len(set))
	for element := range set {
		ret[element] = struct{}{}
	}
	return ret
}

// Len returns the number of elements in the set.
func (set Set[T]) Len() int {
	return len(set)
}

// UniqueSet is a set of UniqueIDs.
type UniqueSet = Set[UniqueID]

// NewUniqueSet returns a UniqueSet containing the given IDs.
func NewUniqueSet(ids ...UniqueID) UniqueSet {
	return NewSet(ids...)
}
