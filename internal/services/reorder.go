// reorder.go
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

package services

import (
	"github.com/localnerve/recipe-board/internal/metrics"
	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/ordering"
	"github.com/localnerve/recipe-board/internal/types"
	"gorm.io/gorm"
)

// ColumnOrder is one entry of a column reorder batch
type ColumnOrder struct {
	ID    string
	Order int
}

// CardOrder is one entry of a card reorder or move batch. An empty ColumnID
// means the column the batch was sent to.
type CardOrder struct {
	ID       string
	Order    int
	ColumnID string
}

func pins[T any](entries []T, key func(T) (string, int)) ([]ordering.Pin[string], map[string]bool, error) {
	out := make([]ordering.Pin[string], 0, len(entries))
	named := make(map[string]bool, len(entries))
	for _, e := range entries {
		id, at := key(e)
		if id == "" {
			return nil, nil, types.NewValidation("every entry needs an id")
		}
		if at < 0 {
			return nil, nil, types.NewValidation("order must not be negative")
		}
		if named[id] {
			return nil, nil, types.NewValidation("duplicate id %s", id)
		}
		named[id] = true
		out = append(out, ordering.Pin[string]{Item: id, At: at})
	}
	return out, named, nil
}

// unnamed keeps the ids of seq that the batch does not mention, in order
func unnamed(seq []string, named map[string]bool) []string {
	rest := make([]string, 0, len(seq))
	for _, id := range seq {
		if !named[id] {
			rest = append(rest, id)
		}
	}
	return rest
}

// ReorderColumns applies a column batch to a board in one transaction.
// Named columns land at their requested positions, the others keep their
// relative order, and the result is renumbered 0..n-1. Only rows whose order
// changed are written.
func ReorderColumns(db *gorm.DB, ownerID, boardID string, entries []ColumnOrder) error {
	if len(entries) == 0 {
		return types.NewValidation("columns must be a non-empty array")
	}
	pinned, named, err := pins(entries, func(e ColumnOrder) (string, int) { return e.ID, e.Order })
	if err != nil {
		return err
	}

	written := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, BoardRef(boardID)); err != nil {
			return err
		}
		if err := lockBoard(tx, boardID); err != nil {
			return err
		}
		seq, current, err := columnSequence(tx, boardID)
		if err != nil {
			return err
		}
		for id := range named {
			if _, ok := current[id]; !ok {
				return types.NewNotFound(string(KindColumn))
			}
		}

		merged := ordering.Merge(pinned, unnamed(seq, named))
		written, err = writeColumnOrder(tx, merged, current)
		return err
	})
	err = internalError("Failed to update column order", err)
	metrics.ObserveReorder(metrics.KindColumns, written, err)
	return err
}

// ReorderColumnsAt is ReorderColumns addressed through one of the board's
// columns. boardID may be empty, in which case the column's board is used;
// otherwise the column must belong to it.
func ReorderColumnsAt(db *gorm.DB, ownerID, columnID, boardID string, entries []ColumnOrder) error {
	if !Authorize(db, ownerID, ColumnRef(columnID)) {
		return types.NewNotFound(string(KindColumn))
	}
	var col models.Column
	if err := silent(db).Select("id", "board_id").Where("id = ?", columnID).First(&col).Error; err != nil {
		return internalError("Failed to update column order", err)
	}
	if boardID == "" {
		boardID = col.BoardID
	}
	if col.BoardID != boardID {
		return types.NewNotFound(string(KindColumn))
	}
	return ReorderColumns(db, ownerID, boardID, entries)
}

// MoveCards applies a card batch sent to destColumnID in one transaction.
// Each entry sets a card's column and position; this covers reordering
// inside a column and moving between columns alike. Every column that loses
// or gains a card is renumbered 0..n-1, with named cards pinned at their
// requested positions and the rest keeping their relative order.
//
// The destination column, every column an entry names, and every column a
// named card currently sits in must belong to ownerID.
func MoveCards(db *gorm.DB, ownerID, destColumnID string, entries []CardOrder) error {
	if len(entries) == 0 {
		return types.NewValidation("cards must be a non-empty array")
	}
	pinned, named, err := pins(entries, func(e CardOrder) (string, int) { return e.ID, e.Order })
	if err != nil {
		return err
	}

	targets := map[string]string{}
	for _, e := range entries {
		target := e.ColumnID
		if target == "" {
			target = destColumnID
		}
		targets[e.ID] = target
	}

	written := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, ColumnRef(destColumnID)); err != nil {
			return err
		}

		var cards []models.Card
		if err := silent(tx).Select("id", "column_id").Where("id IN ?", keys(named)).Find(&cards).Error; err != nil {
			return err
		}
		if len(cards) != len(named) {
			return types.NewNotFound(string(KindCard))
		}

		affected := []string{destColumnID}
		seen := map[string]bool{destColumnID: true}
		add := func(id string) {
			if !seen[id] {
				seen[id] = true
				affected = append(affected, id)
			}
		}
		for _, c := range cards {
			add(c.ColumnID)
		}
		for _, e := range entries {
			add(targets[e.ID])
		}
		for _, id := range affected[1:] {
			if err := guard(tx, ownerID, ColumnRef(id)); err != nil {
				return err
			}
		}

		if err := lockColumns(tx, affected); err != nil {
			return err
		}
		seqs, current, err := cardSequences(tx, affected)
		if err != nil {
			return err
		}

		for _, columnID := range affected {
			var columnPins []ordering.Pin[string]
			for _, p := range pinned {
				if targets[p.Item] == columnID {
					columnPins = append(columnPins, p)
				}
			}
			merged := ordering.Merge(columnPins, unnamed(seqs[columnID], named))
			n, err := writeCardOrder(tx, columnID, merged, current)
			written += n
			if err != nil {
				return err
			}
		}
		return nil
	})
	err = internalError("Failed to update card order", err)
	metrics.ObserveReorder(metrics.KindCards, written, err)
	return err
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
