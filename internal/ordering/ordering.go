// ordering.go
//
// Recipe development board data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recipe-board.
// recipe-board is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recipe-board is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recipe-board.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package ordering keeps sibling sets (columns of a board, cards of a column)
// in a dense, zero-based order.
//
// Every function here is pure: it takes the current sequence and returns the
// new one. The persisted order value of an element is always its index in the
// returned sequence, so callers write Assign(result) and never compute order
// values of their own.
package ordering

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrIndexOutOfRange is returned when a source index does not address an element.
var ErrIndexOutOfRange = errors.New("index out of range")

// Assignment is the persisted order of one element.
type Assignment struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Pin requests that Item lands at position At of a merged sequence.
type Pin[T any] struct {
	Item T
	At   int
}

func clamp(i, lo, hi int) int {
	return max(lo, min(i, hi))
}

// Move removes the element at from and reinserts it at to, clamped to
// [0, len(seq)-1]. This is a splice, not a swap. moved is false when the
// sequence is unchanged; callers must not persist anything in that case.
func Move[T any](seq []T, from, to int) (out []T, moved bool, err error) {
	if from < 0 || from >= len(seq) {
		return nil, false, fmt.Errorf("move from %d of %d: %w", from, len(seq), ErrIndexOutOfRange)
	}
	to = clamp(to, 0, len(seq)-1)
	out = slices.Clone(seq)
	if from == to {
		return out, false, nil
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, item)
	return out, true, nil
}

// Remove deletes the element at index at.
func Remove[T any](seq []T, at int) ([]T, T, error) {
	var zero T
	if at < 0 || at >= len(seq) {
		return nil, zero, fmt.Errorf("remove %d of %d: %w", at, len(seq), ErrIndexOutOfRange)
	}
	item := seq[at]
	return slices.Delete(slices.Clone(seq), at, at+1), item, nil
}

// Insert places item at index at, clamped to [0, len(seq)]. An index past
// the end appends; inserting into an empty sequence yields order 0.
func Insert[T any](seq []T, item T, at int) []T {
	at = clamp(at, 0, len(seq))
	return slices.Insert(slices.Clone(seq), at, item)
}

// Transfer moves src[from] into dst at index to. It is the cross-container
// form of Move: both returned sequences are dense and both must be persisted.
func Transfer[T any](src, dst []T, from, to int) (newSrc, newDst []T, err error) {
	newSrc, item, err := Remove(src, from)
	if err != nil {
		return nil, nil, err
	}
	return newSrc, Insert(dst, item, to), nil
}

// Merge builds a sequence where every pinned item sits at its requested
// position and the unpinned rest keeps its relative order in the remaining
// slots. Pins past the end are appended; pins that collide are placed in
// request order. A pin set that names every element reproduces it verbatim.
func Merge[T any](pinned []Pin[T], rest []T) []T {
	pins := slices.Clone(pinned)
	slices.SortStableFunc(pins, func(a, b Pin[T]) int {
		return cmp.Compare(a.At, b.At)
	})

	out := make([]T, 0, len(pins)+len(rest))
	pi, ri := 0, 0
	for pi < len(pins) || ri < len(rest) {
		if pi < len(pins) && (pins[pi].At <= len(out) || ri >= len(rest)) {
			out = append(out, pins[pi].Item)
			pi++
			continue
		}
		out = append(out, rest[ri])
		ri++
	}
	return out
}

// Assign maps each id to its positional index.
func Assign(ids []string) []Assignment {
	out := make([]Assignment, len(ids))
	for i, id := range ids {
		out[i] = Assignment{ID: id, Order: i}
	}
	return out
}

// Sorted returns items ordered by their order value. Ties keep input order,
// which makes a damaged sequence (gaps or duplicates) repairable by Assign.
func Sorted[T any](items []T, order func(T) int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(order(a), order(b))
	})
	return out
}

// IsDense reports whether orders, once sorted, are exactly 0..n-1.
func IsDense(orders []int) bool {
	sorted := slices.Sorted(slices.Values(orders))
	for i, o := range sorted {
		if o != i {
			return false
		}
	}
	return true
}
