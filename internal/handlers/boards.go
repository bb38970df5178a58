package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recipe-board/internal/services"
	"github.com/localnerve/recipe-board/internal/utils"
	"gorm.io/gorm"
)

// BoardHandler handles board routes
type BoardHandler struct {
	DB *gorm.DB
	// AutoProvision creates the default board on an owner's first list
	AutoProvision bool
}

// BoardBody is the payload of board create and rename
type BoardBody struct {
	Title string `json:"title" example:"Weeknight dinners"`
}

// ReorderColumnsBody is the payload of PUT /api/boards/:boardId/columns
type ReorderColumnsBody struct {
	Columns []OrderEntry `json:"columns"`
}

func columnOrders(entries []OrderEntry) []services.ColumnOrder {
	out := make([]services.ColumnOrder, len(entries))
	for i, e := range entries {
		out[i] = services.ColumnOrder{ID: e.ID, Order: e.Order.Int()}
	}
	return out
}

// GetBoards handles GET /api/boards
// @Summary List boards
// @Description Every board of the caller with columns, cards and ingredients in order
// @Tags Boards
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Board
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /boards [get]
func (h *BoardHandler) GetBoards(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		boards, err := services.GetBoards(h.DB, userID, h.AutoProvision)
		if err != nil {
			return utils.HandleError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(boards)
	})
}

// CreateBoard handles POST /api/boards
// @Summary Create a board
// @Tags Boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BoardBody true "Board"
// @Success 201 {object} models.Board
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /boards [post]
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body BoardBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		board, err := services.CreateBoard(h.DB, userID, body.Title)
		if err != nil {
			return utils.HandleError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(board)
	})
}

// UpdateBoard handles PUT /api/boards/:boardId
// @Summary Rename a board
// @Tags Boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param body body BoardBody true "Board"
// @Success 200 {object} models.Board
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{boardId} [put]
func (h *BoardHandler) UpdateBoard(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body BoardBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		board, err := services.UpdateBoard(h.DB, userID, c.Params("boardId"), body.Title)
		if err != nil {
			return utils.HandleError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(board)
	})
}

// DeleteBoard handles DELETE /api/boards/:boardId
// @Summary Delete a board
// @Description Deletes the board with its columns, cards and ingredients
// @Tags Boards
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Success 200 {object} utils.MutationSuccessStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{boardId} [delete]
func (h *BoardHandler) DeleteBoard(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		if err := services.DeleteBoard(h.DB, userID, c.Params("boardId")); err != nil {
			return utils.HandleError(c, err)
		}
		return utils.MutationSuccessResponse(c)
	})
}

// ReorderColumns handles PUT /api/boards/:boardId/columns
// @Summary Reorder columns
// @Description Named columns land at their positions, the rest keep their relative order
// @Tags Boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param body body ReorderColumnsBody true "Column order"
// @Success 200 {object} utils.MutationSuccessStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /boards/{boardId}/columns [put]
func (h *BoardHandler) ReorderColumns(c *fiber.Ctx) error {
	return withUser(c, func(userID string) error {
		var body ReorderColumnsBody
		if err := parseBody(c, &body); err != nil {
			return utils.HandleError(c, err)
		}
		if err := services.ReorderColumns(h.DB, userID, c.Params("boardId"), columnOrders(body.Columns)); err != nil {
			return utils.HandleError(c, err)
		}
		return utils.MutationSuccessResponse(c)
	})
}
