package services

import (
	"github.com/google/uuid"
	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/ordering"
	"github.com/localnerve/recipe-board/internal/types"
	"gorm.io/gorm"
)

// CreateColumnInput is the payload of POST /api/columns
type CreateColumnInput struct {
	BoardID string
	Title   string
	// Order is the requested position; nil appends
	Order *int
	Limit *int
}

// UpdateColumnInput holds the fields to change; nil leaves a field as is
type UpdateColumnInput struct {
	Title *string
	// Limit 0 clears the limit
	Limit *int
}

func validLimit(limit *int) (*int, error) {
	if limit == nil {
		return nil, nil
	}
	if *limit < 0 {
		return nil, types.NewValidation("limit must not be negative")
	}
	if *limit == 0 {
		return nil, nil
	}
	v := *limit
	return &v, nil
}

// position turns an optional requested index into one Insert understands
func position(order *int, length int) int {
	if order == nil {
		return length
	}
	return *order
}

// CreateColumn inserts a column at the requested position of its board and
// renumbers the columns after it
func CreateColumn(db *gorm.DB, ownerID string, in CreateColumnInput) (*models.Column, error) {
	title, err := validTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.BoardID == "" {
		return nil, types.NewValidation("boardId is required")
	}
	limit, err := validLimit(in.Limit)
	if err != nil {
		return nil, err
	}

	col := models.Column{ID: uuid.NewString(), BoardID: in.BoardID, Title: title, Limit: limit, Cards: []models.Card{}}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, BoardRef(in.BoardID)); err != nil {
			return err
		}
		if err := lockBoard(tx, in.BoardID); err != nil {
			return err
		}
		ids, current, err := columnSequence(tx, in.BoardID)
		if err != nil {
			return err
		}

		ids = ordering.Insert(ids, col.ID, position(in.Order, len(ids)))
		for _, a := range ordering.Assign(ids) {
			if a.ID == col.ID {
				col.Order = a.Order
			}
		}
		if err := tx.Omit("Cards").Create(&col).Error; err != nil {
			return err
		}
		current[col.ID] = col.Order
		_, err = writeColumnOrder(tx, ids, current)
		return err
	})
	if err != nil {
		return nil, internalError("Failed to create column", err)
	}
	return &col, nil
}

// UpdateColumn changes the title or limit of a column
func UpdateColumn(db *gorm.DB, ownerID, columnID string, in UpdateColumnInput) (*models.Column, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		title, err := validTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Limit != nil {
		limit, err := validLimit(in.Limit)
		if err != nil {
			return nil, err
		}
		updates["card_limit"] = limit
	}

	var col models.Column
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, ColumnRef(columnID)); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Column{}).Where("id = ?", columnID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return silent(tx).
			Preload("Cards", func(q *gorm.DB) *gorm.DB { return q.Order("sort_order") }).
			Preload("Cards.Ingredients", func(q *gorm.DB) *gorm.DB { return q.Order("seq") }).
			Where("id = ?", columnID).First(&col).Error
	})
	if err != nil {
		return nil, internalError("Failed to update column", err)
	}
	return &col, nil
}

// DeleteColumn removes a column and its cards, then closes the gap in the
// board's column order
func DeleteColumn(db *gorm.DB, ownerID, columnID string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, ColumnRef(columnID)); err != nil {
			return err
		}
		var col models.Column
		if err := silent(tx).Where("id = ?", columnID).First(&col).Error; err != nil {
			return err
		}
		if err := lockBoard(tx, col.BoardID); err != nil {
			return err
		}

		cards := tx.Model(&models.Card{}).Select("id").Where("column_id = ?", columnID)
		if err := tx.Where("card_id IN (?)", cards).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("column_id = ?", columnID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", columnID).Delete(&models.Column{}).Error; err != nil {
			return err
		}

		ids, current, err := columnSequence(tx, col.BoardID)
		if err != nil {
			return err
		}
		_, err = writeColumnOrder(tx, ids, current)
		return err
	})
	return internalError("Failed to delete column", err)
}
