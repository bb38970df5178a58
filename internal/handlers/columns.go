package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recipe-board/internal/services"
	"github.com/localnerve/recipe-board/internal/types"
	"github.com/localnerve/recipe-board/internal/utils"
	"gorm.io/gorm"
)

// ColumnHandler handles column routes, including card moves into a column
type ColumnHandler struct {
	DB *gorm.DB
}

// CreateColumnBody is the payload of POST /api/columns
type CreateColumnBody struct {
	Title   string         `json:"title" example:"Prep"`
	BoardID string         `json:"boardId"`
	Order   *types.FlexInt `json:"order" swaggertype:"integer"`
	Limit   *types.FlexInt `json:"limit" swaggertype:"integer"`
}

// UpdateColumnBody is the payload of PUT /api/columns/:columnId
type UpdateColumnBody struct {
	Title *string        `json:"title"`
	Limit *types.FlexInt `json:"limit" swaggertype:"integer"`
}

// CardOrderEntry is one entry of a card move batch
type CardOrderEntry struct {
	ID       string        `json:"id"`
	Order    types.FlexInt `json:"order" swaggertype:"integer"`
	ColumnID string        `json:"columnId"`
}

// MoveCardsBody is the payload of PUT /api/columns/:columnId/cards
type MoveCardsBody struct {
	Cards []CardOrderEntry `json:"cards"`
}

// ReorderColumnsAtBody is the payload of PUT /api/columns/:columnId/reorder
type ReorderColumnsAtBody struct {
	BoardID string       `json:"boardId"`
	Columns []OrderEntry `json:"columns"`
}

// CreateColumn handles POST /api/columns
// @Summary Create a column
// @Description Inserts the column at order, or appends it, and renumbers the board's columns
// @Tags Columns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateColumnBody true "Column"
// @Success 201 {object} models.Column
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /columns [post]
func (h *ColumnHandler) CreateColumn(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body CreateColumnBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		col, err := services.CreateColumn(h.DB, userID, services.CreateColumnInput{
			BoardID: body.BoardID,
			Title:   body.Title,
			Order:   types.IntPtr(body.Order),
			Limit:   types.IntPtr(body.Limit),
		})
		if err != nil {
			return utils.HandleError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(col)
	})
}

// UpdateColumn handles PUT /api/columns/:columnId
// @Summary Update a column
// @Description Changes the title or limit; limit 0 clears the limit
// @Tags Columns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param columnId path string true "Column ID"
// @Param body body UpdateColumnBody true "Fields to change"
// @Success 200 {object} models.Column
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /columns/{columnId} [put]
func (h *ColumnHandler) UpdateColumn(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body UpdateColumnBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		col, err := services.UpdateColumn(h.DB, userID, c.Params("columnId"), services.UpdateColumnInput{
			Title: body.Title,
			Limit: types.IntPtr(body.Limit),
		})
		if err != nil {
			return utils.HandleError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(col)
	})
}

// MoveCards handles PUT /api/columns/:columnId/cards
// @Summary Move or reorder cards
// @Description Places each named card in its column at its order. Every affected column is renumbered 0..n-1 in one transaction.
// @Tags Columns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param columnId path string true "Destination column ID"
// @Param body body MoveCardsBody true "Card order"
// @Success 200 {object} utils.MutationSuccessStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /columns/{columnId}/cards [put]
func (h *ColumnHandler) MoveCards(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body MoveCardsBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		entries := make([]services.CardOrder, len(body.Cards))
		for i, e := range body.Cards {
			entries[i] = services.CardOrder{ID: e.ID, Order: e.Order.Int(), ColumnID: e.ColumnID}
		}
		if err := services.MoveCards(h.DB, userID, c.Params("columnId"), entries); err != nil {
			return utils.HandleError(c, err)
		}
		return utils.MutationSuccessResponse(c)
	})
}

// ReorderColumns handles PUT /api/columns/:columnId/reorder
// @Summary Reorder columns through one of them
// @Tags Columns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param columnId path string true "Column ID"
// @Param body body ReorderColumnsAtBody true "Column order"
// @Success 200 {object} utils.MutationSuccessStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /columns/{columnId}/reorder [put]
func (h *ColumnHandler) ReorderColumns(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body ReorderColumnsAtBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		err := services.ReorderColumnsAt(h.DB, userID, c.Params("columnId"), body.BoardID, columnOrders(body.Columns))
		if err != nil {
			return utils.HandleError(c, err)
		}
		return utils.MutationSuccessResponse(c)
	})
}

// DeleteColumn handles DELETE /api/columns/:columnId
// @Summary Delete a column
// @Description Deletes the column and its cards, then closes the gap in the board
// @Tags Columns
// @Produce json
// @Security BearerAuth
// @Param columnId path string true "Column ID"
// @Success 200 {object} utils.MutationSuccessStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /columns/{columnId} [delete]
func (h *ColumnHandler) DeleteColumn(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		if err := services.DeleteColumn(h.DB, userID, c.Params("columnId")); err != nil {
			return utils.HandleError(c, err)
		}
		return utils.MutationSuccessResponse(c)
	})
}
