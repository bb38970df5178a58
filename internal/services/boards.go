// boards.go
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
	"fmt"
	"log"
	"strings"

	"github.com/localnerve/recipe-board/data"
	"github.com/localnerve/recipe-board/internal/metrics"
	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// preloadBoard loads columns, cards and ingredients in display order
func preloadBoard(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Columns", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order").Order("created_at") }).
		Preload("Columns.Cards", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order").Order("created_at") }).
		Preload("Columns.Cards.Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq") })
}

// GetBoards retrieves every board the owner has, fully nested. When the
// owner has none and provision is set, the default board is created first.
func GetBoards(db *gorm.DB, ownerID string, provision bool) ([]models.Board, error) {
	boards, err := findBoards(db, ownerID)
	if err != nil {
		return nil, types.NewInternal("Failed to fetch boards", err)
	}
	if len(boards) > 0 || !provision {
		return boards, nil
	}

	if _, err := ProvisionDefaultBoard(db, ownerID); err != nil {
		return nil, err
	}
	boards, err = findBoards(db, ownerID)
	if err != nil {
		return nil, types.NewInternal("Failed to fetch boards", err)
	}
	return boards, nil
}

func findBoards(db *gorm.DB, ownerID string) ([]models.Board, error) {
	boards := []models.Board{}
	err := preloadBoard(silent(db)).
		Clauses(hints.CommentBefore("select", "recipe-board:GetBoards")).
		Where("owner_id = ?", ownerID).
		Order("created_at").Order("id").
		Find(&boards).Error
	return boards, err
}

// GetBoard retrieves one owned board, fully nested
func GetBoard(db *gorm.DB, ownerID, boardID string) (*models.Board, error) {
	if err := guard(db, ownerID, BoardRef(boardID)); err != nil {
		return nil, err
	}
	var board models.Board
	if err := preloadBoard(silent(db)).Where("id = ?", boardID).First(&board).Error; err != nil {
		return nil, internalError("Failed to fetch board", err)
	}
	return &board, nil
}

// EnsureUser creates a placeholder user row for id unless one exists.
// Webhooks fill in the profile later.
func EnsureUser(tx *gorm.DB, id string) error {
	user := models.User{ID: id}
	return silent(tx).Where(models.User{ID: id}).FirstOrCreate(&user).Error
}

// ProvisionDefaultBoard creates the embedded default board for ownerID. It is
// a no-op returning nil when the owner already has a board.
func ProvisionDefaultBoard(db *gorm.DB, ownerID string) (*models.Board, error) {
	tmpl, err := data.DefaultBoard()
	if err != nil {
		return nil, types.NewInternal("Failed to read default board", err)
	}

	var created *models.Board
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := EnsureUser(tx, ownerID); err != nil {
			return err
		}
		// Lock the owner so two first requests cannot both provision
		var owner models.User
		if err := forUpdate(silent(tx)).Where("id = ?", ownerID).First(&owner).Error; err != nil {
			return err
		}
		var count int64
		if err := silent(tx).Model(&models.Board{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		board := models.Board{Title: tmpl.Title, OwnerID: ownerID, Columns: []models.Column{}}
		if err := tx.Omit("Columns").Create(&board).Error; err != nil {
			return err
		}
		for i, ct := range tmpl.Columns {
			col := models.Column{BoardID: board.ID, Title: ct.Title, Order: i, Limit: ct.Limit, Cards: []models.Card{}}
			if err := tx.Omit("Cards").Create(&col).Error; err != nil {
				return err
			}
			board.Columns = append(board.Columns, col)
		}
		created = &board
		return nil
	})
	if err != nil {
		return nil, internalError("Failed to provision default board", err)
	}
	if created != nil {
		metrics.ObserveProvisioned()
		log.Printf("Provisioned default board %s for %s", created.ID, ownerID)
	}
	return created, nil
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", types.NewValidation("title is required")
	}
	if len(title) > 255 {
		return "", types.NewValidation("title must be at most 255 characters")
	}
	return title, nil
}

// CreateBoard creates an empty board
func CreateBoard(db *gorm.DB, ownerID, title string) (*models.Board, error) {
	title, err := validTitle(title)
	if err != nil {
		return nil, err
	}

	board := models.Board{Title: title, OwnerID: ownerID, Columns: []models.Column{}}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := EnsureUser(tx, ownerID); err != nil {
			return err
		}
		return tx.Omit("Columns").Create(&board).Error
	})
	if err != nil {
		return nil, internalError("Failed to create board", err)
	}
	return &board, nil
}

// UpdateBoard renames a board
func UpdateBoard(db *gorm.DB, ownerID, boardID, title string) (*models.Board, error) {
	title, err := validTitle(title)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, BoardRef(boardID)); err != nil {
			return err
		}
		return tx.Model(&models.Board{}).Where("id = ?", boardID).Update("title", title).Error
	})
	if err != nil {
		return nil, internalError("Failed to update board", err)
	}
	return GetBoard(db, ownerID, boardID)
}

// DeleteBoard removes a board with its columns, cards and ingredients
func DeleteBoard(db *gorm.DB, ownerID, boardID string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, BoardRef(boardID)); err != nil {
			return err
		}
		if err := lockBoard(tx, boardID); err != nil {
			return err
		}
		return deleteBoards(tx, []string{boardID})
	})
	return internalError("Failed to delete board", err)
}

// deleteBoards cascades leaf first so foreign keys hold at every step
func deleteBoards(tx *gorm.DB, boardIDs []string) error {
	if len(boardIDs) == 0 {
		return nil
	}
	columns := tx.Model(&models.Column{}).Select("id").Where("board_id IN ?", boardIDs)
	cards := tx.Model(&models.Card{}).Select("id").Where("column_id IN (?)", columns)

	if err := tx.Where("card_id IN (?)", cards).Delete(&models.Ingredient{}).Error; err != nil {
		return fmt.Errorf("delete ingredients: %w", err)
	}
	if err := tx.Where("column_id IN (?)", columns).Delete(&models.Card{}).Error; err != nil {
		return fmt.Errorf("delete cards: %w", err)
	}
	if err := tx.Where("board_id IN ?", boardIDs).Delete(&models.Column{}).Error; err != nil {
		return fmt.Errorf("delete columns: %w", err)
	}
	if err := tx.Where("id IN ?", boardIDs).Delete(&models.Board{}).Error; err != nil {
		return fmt.Errorf("delete boards: %w", err)
	}
	return nil
}
