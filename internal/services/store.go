// store.go
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
	"errors"

	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/ordering"
	"github.com/localnerve/recipe-board/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func silent(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// forUpdate adds row locking where the dialect has it. SQLite locks the
// whole database for a write transaction; SQL Server rejects FOR UPDATE.
func forUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "mysql", "postgres":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockBoard serializes writers of one board's column set
func lockBoard(tx *gorm.DB, boardID string) error {
	var board models.Board
	return forUpdate(silent(tx)).Select("id").Where("id = ?", boardID).First(&board).Error
}

// lockColumns serializes writers of the card sets of the given columns
func lockColumns(tx *gorm.DB, columnIDs []string) error {
	var cols []models.Column
	return forUpdate(silent(tx)).Select("id").Where("id IN ?", columnIDs).Order("id").Find(&cols).Error
}

// internalError passes CustomErrors through and wraps everything else
func internalError(message string, err error) error {
	if err == nil {
		return nil
	}
	var ce *types.CustomError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFound("Entity")
	}
	return types.NewInternal(message, err)
}

type placement struct {
	ID       string
	ColumnID string
	Order    int `gorm:"column:sort_order"`
}

// columnSequence returns a board's column ids in persisted order and their
// current order values
func columnSequence(tx *gorm.DB, boardID string) ([]string, map[string]int, error) {
	var rows []placement
	err := silent(tx).Model(&models.Column{}).
		Select("id", "sort_order").
		Where("board_id = ?", boardID).
		Order("sort_order").Order("created_at").Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(rows))
	orders := make(map[string]int, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
		orders[r.ID] = r.Order
	}
	return ids, orders, nil
}

// cardSequences returns each column's card ids in persisted order and every
// card's current placement
func cardSequences(tx *gorm.DB, columnIDs []string) (map[string][]string, map[string]placement, error) {
	var rows []placement
	err := silent(tx).Model(&models.Card{}).
		Select("id", "column_id", "sort_order").
		Where("column_id IN ?", columnIDs).
		Order("sort_order").Order("created_at").Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	seqs := make(map[string][]string, len(columnIDs))
	for _, id := range columnIDs {
		seqs[id] = []string{}
	}
	current := make(map[string]placement, len(rows))
	for _, r := range rows {
		seqs[r.ColumnID] = append(seqs[r.ColumnID], r.ID)
		current[r.ID] = r
	}
	return seqs, current, nil
}

// writeColumnOrder persists the positional order of ids, touching only rows
// whose order changed. It returns the number of rows written.
func writeColumnOrder(tx *gorm.DB, ids []string, current map[string]int) (int, error) {
	written := 0
	for _, a := range ordering.Assign(ids) {
		if order, ok := current[a.ID]; ok && order == a.Order {
			continue
		}
		if err := tx.Model(&models.Column{}).Where("id = ?", a.ID).Update("sort_order", a.Order).Error; err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// writeCardOrder persists ids as the card sequence of columnID, touching
// only rows whose column or order changed
func writeCardOrder(tx *gorm.DB, columnID string, ids []string, current map[string]placement) (int, error) {
	written := 0
	for _, a := range ordering.Assign(ids) {
		if p, ok := current[a.ID]; ok && p.Order == a.Order && p.ColumnID == columnID {
			continue
		}
		err := tx.Model(&models.Card{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
			"column_id":  columnID,
			"sort_order": a.Order,
		}).Error
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
