package services

import (
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/localnerve/recipe-board/internal/metrics"
	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/ordering"
	"github.com/localnerve/recipe-board/internal/types"
	"gorm.io/gorm"
)

// IngredientInput is an ingredient as clients send it
type IngredientInput struct {
	Name     string
	Quantity float64
	Unit     string
}

// CreateCardInput is the payload of POST /api/cards
type CreateCardInput struct {
	ColumnID     string
	Title        string
	Description  string
	Order        *int
	Status       *string
	Instructions []string
	Labels       []string
	Ingredients  []IngredientInput
}

// UpdateCardInput holds the fields to change; nil leaves a field as is.
// Instructions and Ingredients replace the stored lists when present.
type UpdateCardInput struct {
	Title        *string
	Description  *string
	Status       *string
	Instructions *[]string
	Labels       *[]string
	Ingredients  *[]IngredientInput
	ColumnID     *string
	Order        *int
}

func validIngredients(in []IngredientInput) ([]models.Ingredient, error) {
	out := make([]models.Ingredient, 0, len(in))
	for i, ing := range in {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			return nil, types.NewValidation("ingredient %d: name is required", i)
		}
		if ing.Quantity < 0 || math.IsNaN(ing.Quantity) || math.IsInf(ing.Quantity, 0) {
			return nil, types.NewValidation("ingredient %d: quantity must be a non-negative number", i)
		}
		unit, err := models.ParseUnit(ing.Unit)
		if err != nil {
			return nil, types.NewValidation("ingredient %d: %v", i, err)
		}
		out = append(out, models.Ingredient{Name: name, Quantity: ing.Quantity, Unit: unit, Seq: i})
	}
	return out, nil
}

func validStatus(s *string) (models.RecipeStatus, error) {
	if s == nil {
		return models.StatusDormant, nil
	}
	status, err := models.ParseRecipeStatus(*s)
	if err != nil {
		return "", types.NewValidation("%v", err)
	}
	return status, nil
}

// replaceIngredients deletes every ingredient of cardID and inserts the new
// set with fresh ids
func replaceIngredients(tx *gorm.DB, cardID string, ingredients []models.Ingredient) error {
	if err := tx.Where("card_id = ?", cardID).Delete(&models.Ingredient{}).Error; err != nil {
		return err
	}
	if len(ingredients) == 0 {
		return nil
	}
	for i := range ingredients {
		ingredients[i].ID = ""
		ingredients[i].CardID = cardID
	}
	return tx.Create(&ingredients).Error
}

func loadCard(tx *gorm.DB, cardID string) (*models.Card, error) {
	var card models.Card
	err := silent(tx).
		Preload("Ingredients", func(q *gorm.DB) *gorm.DB { return q.Order("seq") }).
		Where("id = ?", cardID).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateCard inserts a card, with its ingredients, at the requested position
// of its column and renumbers the cards after it
func CreateCard(db *gorm.DB, ownerID string, in CreateCardInput) (*models.Card, error) {
	title, err := validTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.ColumnID == "" {
		return nil, types.NewValidation("columnId is required")
	}
	status, err := validStatus(in.Status)
	if err != nil {
		return nil, err
	}
	ingredients, err := validIngredients(in.Ingredients)
	if err != nil {
		return nil, err
	}

	card := models.Card{
		ID:           uuid.NewString(),
		ColumnID:     in.ColumnID,
		Title:        title,
		Description:  in.Description,
		Status:       status,
		Instructions: models.StringList(in.Instructions),
		Labels:       models.StringList(in.Labels),
	}

	var created *models.Card
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, ColumnRef(in.ColumnID)); err != nil {
			return err
		}
		if err := lockColumns(tx, []string{in.ColumnID}); err != nil {
			return err
		}
		seqs, current, err := cardSequences(tx, []string{in.ColumnID})
		if err != nil {
			return err
		}
		ids := ordering.Insert(seqs[in.ColumnID], card.ID, position(in.Order, len(seqs[in.ColumnID])))
		card.Order = slices.Index(ids, card.ID)

		if err := tx.Omit("Ingredients").Create(&card).Error; err != nil {
			return err
		}
		current[card.ID] = placement{ID: card.ID, ColumnID: card.ColumnID, Order: card.Order}
		if _, err := writeCardOrder(tx, in.ColumnID, ids, current); err != nil {
			return err
		}
		if err := replaceIngredients(tx, card.ID, ingredients); err != nil {
			return err
		}
		created, err = loadCard(tx, card.ID)
		return err
	})
	if err != nil {
		return nil, internalError("Failed to create card", err)
	}
	return created, nil
}

// UpdateCard applies a partial update. A columnId or order in the payload
// moves the card, renumbering the columns it leaves and enters.
func UpdateCard(db *gorm.DB, ownerID, cardID string, in UpdateCardInput) (*models.Card, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		title, err := validTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		status, err := validStatus(in.Status)
		if err != nil {
			return nil, err
		}
		updates["status"] = status
	}
	if in.Instructions != nil {
		updates["instructions"] = models.StringList(*in.Instructions)
	}
	if in.Labels != nil {
		updates["labels"] = models.StringList(*in.Labels)
	}
	var ingredients []models.Ingredient
	if in.Ingredients != nil {
		var err error
		if ingredients, err = validIngredients(*in.Ingredients); err != nil {
			return nil, err
		}
	}
	if in.ColumnID != nil && *in.ColumnID == "" {
		return nil, types.NewValidation("columnId must not be empty")
	}
	if in.Order != nil && *in.Order < 0 {
		return nil, types.NewValidation("order must not be negative")
	}

	var updated *models.Card
	written := 0
	moving := in.ColumnID != nil || in.Order != nil
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, CardRef(cardID)); err != nil {
			return err
		}
		card, err := loadCard(tx, cardID)
		if err != nil {
			return err
		}

		if moving {
			if written, err = moveCard(tx, ownerID, card, in.ColumnID, in.Order); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Card{}).Where("id = ?", cardID).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.Ingredients != nil {
			if err := replaceIngredients(tx, cardID, ingredients); err != nil {
				return err
			}
		}
		updated, err = loadCard(tx, cardID)
		return err
	})
	err = internalError("Failed to update card", err)
	if moving {
		metrics.ObserveReorder(metrics.KindCards, written, err)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// moveCard places card at order in destination, which defaults to its
// current column. A nil order keeps the index within the same column and
// appends when changing columns.
func moveCard(tx *gorm.DB, ownerID string, card *models.Card, destination *string, order *int) (int, error) {
	src := card.ColumnID
	dst := src
	if destination != nil {
		dst = *destination
	}
	if dst != src {
		if err := guard(tx, ownerID, ColumnRef(dst)); err != nil {
			return 0, err
		}
	}

	affected := []string{src}
	if dst != src {
		affected = append(affected, dst)
	}
	if err := lockColumns(tx, affected); err != nil {
		return 0, err
	}
	seqs, current, err := cardSequences(tx, affected)
	if err != nil {
		return 0, err
	}
	from := slices.Index(seqs[src], card.ID)
	if from < 0 {
		return 0, types.NewNotFound(string(KindCard))
	}

	if dst == src {
		to := from
		if order != nil {
			to = *order
		}
		seq, moved, err := ordering.Move(seqs[src], from, to)
		if err != nil || !moved {
			return 0, err
		}
		return writeCardOrder(tx, src, seq, current)
	}

	srcSeq, dstSeq, err := ordering.Transfer(seqs[src], seqs[dst], from, position(order, len(seqs[dst])))
	if err != nil {
		return 0, err
	}
	n, err := writeCardOrder(tx, src, srcSeq, current)
	if err != nil {
		return n, err
	}
	m, err := writeCardOrder(tx, dst, dstSeq, current)
	return n + m, err
}

// DeleteCard removes a card and its ingredients, then closes the gap in its
// column
func DeleteCard(db *gorm.DB, ownerID, cardID string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, CardRef(cardID)); err != nil {
			return err
		}
		var card models.Card
		if err := silent(tx).Select("id", "column_id").Where("id = ?", cardID).First(&card).Error; err != nil {
			return err
		}
		if err := lockColumns(tx, []string{card.ColumnID}); err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", cardID).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", cardID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		seqs, current, err := cardSequences(tx, []string{card.ColumnID})
		if err != nil {
			return err
		}
		_, err = writeCardOrder(tx, card.ColumnID, seqs[card.ColumnID], current)
		return err
	})
	return internalError("Failed to delete card", err)
}
