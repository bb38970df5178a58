// guard.go
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
	"log"

	"github.com/localnerve/recipe-board/internal/types"
	"gorm.io/gorm"
)

// EntityKind names a link in the ownership chain
type EntityKind string

const (
	KindBoard      EntityKind = "Board"
	KindColumn     EntityKind = "Column"
	KindCard       EntityKind = "Card"
	KindIngredient EntityKind = "Ingredient"
)

// EntityRef identifies the target of an authorization check
type EntityRef struct {
	Kind EntityKind
	ID   string
}

func BoardRef(id string) EntityRef      { return EntityRef{KindBoard, id} }
func ColumnRef(id string) EntityRef     { return EntityRef{KindColumn, id} }
func CardRef(id string) EntityRef       { return EntityRef{KindCard, id} }
func IngredientRef(id string) EntityRef { return EntityRef{KindIngredient, id} }

// Authorize walks ingredient->card->column->board->owner and reports whether
// principalID owns the referenced entity. A dangling reference, an empty
// principal or a failed query all yield false. Nothing is cached; pass the
// transaction when calling from inside one.
func Authorize(db *gorm.DB, principalID string, ref EntityRef) bool {
	if principalID == "" || ref.ID == "" {
		return false
	}

	q := silent(db)
	switch ref.Kind {
	case KindBoard:
		q = q.Table("boards").
			Where("boards.id = ?", ref.ID)
	case KindColumn:
		q = q.Table("board_columns").
			Joins("JOIN boards ON boards.id = board_columns.board_id").
			Where("board_columns.id = ?", ref.ID)
	case KindCard:
		q = q.Table("cards").
			Joins("JOIN board_columns ON board_columns.id = cards.column_id").
			Joins("JOIN boards ON boards.id = board_columns.board_id").
			Where("cards.id = ?", ref.ID)
	case KindIngredient:
		q = q.Table("ingredients").
			Joins("JOIN cards ON cards.id = ingredients.card_id").
			Joins("JOIN board_columns ON board_columns.id = cards.column_id").
			Joins("JOIN boards ON boards.id = board_columns.board_id").
			Where("ingredients.id = ?", ref.ID)
	default:
		return false
	}

	var count int64
	if err := q.Where("boards.owner_id = ?", principalID).Count(&count).Error; err != nil {
		log.Printf("Ownership check failed for %s %s: %v", ref.Kind, ref.ID, err)
		return false
	}
	return count > 0
}

// guard converts a failed Authorize into the uniform not-found error
func guard(db *gorm.DB, principalID string, ref EntityRef) error {
	if !Authorize(db, principalID, ref) {
		return types.NewNotFound(string(ref.Kind))
	}
	return nil
}
