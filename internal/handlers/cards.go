package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recipe-board/internal/services"
	"github.com/localnerve/recipe-board/internal/types"
	"github.com/localnerve/recipe-board/internal/utils"
	"gorm.io/gorm"
)

// CardHandler handles card and ingredient routes
type CardHandler struct {
	DB *gorm.DB
}

// CreateCardBody is the payload of POST /api/cards
type CreateCardBody struct {
	Title        string            `json:"title" example:"Sourdough"`
	Description  string            `json:"description"`
	ColumnID     string            `json:"columnId"`
	Order        *types.FlexInt    `json:"order" swaggertype:"integer"`
	Status       *string           `json:"status" example:"DORMANT"`
	Instructions types.FlexStrings `json:"instructions" swaggertype:"array,string"`
	Labels       types.FlexStrings `json:"labels" swaggertype:"array,string"`
	Ingredients  []IngredientBody  `json:"ingredients"`
}

// UpdateCardBody is the payload of PUT /api/cards/:cardId. Omitted fields
// stay as they are; instructions and ingredients replace the stored lists.
type UpdateCardBody struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	ColumnID     *string            `json:"columnId"`
	Order        *types.FlexInt     `json:"order" swaggertype:"integer"`
	Status       *string            `json:"status"`
	Instructions *types.FlexStrings `json:"instructions" swaggertype:"array,string"`
	Labels       *types.FlexStrings `json:"labels" swaggertype:"array,string"`
	Ingredients  *[]IngredientBody  `json:"ingredients"`
}

func (b UpdateCardBody) input() services.UpdateCardInput {
	in := services.UpdateCardInput{
		Title:       b.Title,
		Description: b.Description,
		Status:      b.Status,
		ColumnID:    b.ColumnID,
		Order:       types.IntPtr(b.Order),
	}
	if b.Instructions != nil {
		steps := b.Instructions.Trimmed()
		in.Instructions = &steps
	}
	if b.Labels != nil {
		labels := b.Labels.Set()
		in.Labels = &labels
	}
	if b.Ingredients != nil {
		ingredients := ingredientInputs(*b.Ingredients)
		in.Ingredients = &ingredients
	}
	return in
}

// CreateCard handles POST /api/cards
// @Summary Create a card
// @Description Inserts the card with its ingredients at order, or appends it
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateCardBody true "Card"
// @Success 201 {object} models.Card
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /cards [post]
func (h *CardHandler) CreateCard(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body CreateCardBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		card, err := services.CreateCard(h.DB, userID, services.CreateCardInput{
			ColumnID:     body.ColumnID,
			Title:        body.Title,
			Description:  body.Description,
			Order:        types.IntPtr(body.Order),
			Status:       body.Status,
			Instructions: body.Instructions.Trimmed(),
			Labels:       body.Labels.Set(),
			Ingredients:  ingredientInputs(body.Ingredients),
		})
		if err != nil {
			return utils.HandleError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(card)
	})
}

// UpdateCard handles PUT /api/cards/:cardId
// @Summary Update a card
// @Description Partial update. columnId and order move the card.
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cardId path string true "Card ID"
// @Param body body UpdateCardBody true "Fields to change"
// @Success 200 {object} models.Card
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /cards/{cardId} [put]
func (h *CardHandler) UpdateCard(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body UpdateCardBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		card, err := services.UpdateCard(h.DB, userID, c.Params("cardId"), body.input())
		if err != nil {
			return utils.HandleError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(card)
	})
}

// DeleteCard handles DELETE /api/cards/:cardId
// @Summary Delete a card
// @Tags Cards
// @Produce json
// @Security BearerAuth
// @Param cardId path string true "Card ID"
// @Success 200 {object} utils.MutationSuccessStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /cards/{cardId} [delete]
func (h *CardHandler) DeleteCard(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		if err := services.DeleteCard(h.DB, userID, c.Params("cardId")); err != nil {
			return utils.HandleError(c, err)
		}
		return utils.MutationSuccessResponse(c)
	})
}

// AddIngredient handles POST /api/cards/:cardId/ingredients
// @Summary Add an ingredient
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cardId path string true "Card ID"
// @Param body body IngredientBody true "Ingredient"
// @Success 201 {object} models.Ingredient
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /cards/{cardId}/ingredients [post]
func (h *CardHandler) AddIngredient(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body IngredientBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		ing, err := services.AddIngredient(h.DB, userID, c.Params("cardId"), body.input())
		if err != nil {
			return utils.HandleError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ing)
	})
}

// DeleteIngredient handles DELETE /api/ingredients/:ingredientId
// @Summary Delete an ingredient
// @Tags Cards
// @Produce json
// @Security BearerAuth
// @Param ingredientId path string true "Ingredient ID"
// @Success 200 {object} utils.MutationSuccessStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /ingredients/{ingredientId} [delete]
func (h *CardHandler) DeleteIngredient(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		if err := services.DeleteIngredient(h.DB, userID, c.Params("ingredientId")); err != nil {
			return utils.HandleError(c, err)
		}
		return utils.MutationSuccessResponse(c)
	})
}
