package services

import (
	"github.com/localnerve/recipe-board/internal/models"
	"gorm.io/gorm"
)

// AddIngredient appends one ingredient to a card
func AddIngredient(db *gorm.DB, ownerID, cardID string, in IngredientInput) (*models.Ingredient, error) {
	valid, err := validIngredients([]IngredientInput{in})
	if err != nil {
		return nil, err
	}
	ing := valid[0]
	ing.CardID = cardID

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, CardRef(cardID)); err != nil {
			return err
		}
		var next struct{ Seq *int }
		if err := silent(tx).Model(&models.Ingredient{}).
			Select("MAX(seq) AS seq").
			Where("card_id = ?", cardID).
			Scan(&next).Error; err != nil {
			return err
		}
		if next.Seq != nil {
			ing.Seq = *next.Seq + 1
		}
		return tx.Create(&ing).Error
	})
	if err != nil {
		return nil, internalError("Failed to add ingredient", err)
	}
	return &ing, nil
}

// DeleteIngredient removes one ingredient
func DeleteIngredient(db *gorm.DB, ownerID, ingredientID string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := guard(tx, ownerID, IngredientRef(ingredientID)); err != nil {
			return err
		}
		return tx.Where("id = ?", ingredientID).Delete(&models.Ingredient{}).Error
	})
	return internalError("Failed to delete ingredient", err)
}
