// common.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recipe-board/internal/middleware"
	"github.com/localnerve/recipe-board/internal/services"
	"github.com/localnerve/recipe-board/internal/types"
	"github.com/localnerve/recipe-board/internal/utils"
)

// getUserID extracts the principal set by the auth middleware
func getUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	return userID, ok && userID != ""
}

// withUser runs fn with the principal, or answers 401 when there is none
func withUser(c *fiber.Ctx, fn func(userID string) error) error {
	userID, ok := getUserID(c)
	if !ok {
		return utils.ErrorResponse(c, "Authentication required", fiber.StatusUnauthorized, types.TypeUnauthenticated)
	}
	return fn(userID)
}

// parseBody decodes the JSON body into out
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return types.NewValidation("Invalid input: %v", err)
	}
	return nil
}

// IngredientBody is an ingredient in a request payload
type IngredientBody struct {
	Name     string  `json:"name" example:"flour"`
	Quantity float64 `json:"quantity" example:"500"`
	Unit     string  `json:"unit" example:"G"`
}

func (b IngredientBody) input() services.IngredientInput {
	return services.IngredientInput{Name: b.Name, Quantity: b.Quantity, Unit: b.Unit}
}

func ingredientInputs(in []IngredientBody) []services.IngredientInput {
	out := make([]services.IngredientInput, len(in))
	for i, b := range in {
		out[i] = b.input()
	}
	return out
}

// OrderEntry is one {id, order} pair of a reorder batch
type OrderEntry struct {
	ID    string        `json:"id"`
	Order types.FlexInt `json:"order" swaggertype:"integer"`
}
