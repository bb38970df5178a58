// auth.go
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

package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recipe-board/internal/services"
	"github.com/localnerve/recipe-board/internal/types"
	"github.com/localnerve/recipe-board/internal/utils"
)

// Locals keys set by RequireAuth
const (
	LocalUserID    = "userID"
	LocalUserEmail = "userEmail"
)

// RequireAuth validates the bearer token on the request and stores the
// principal in context. Missing or invalid tokens get a 401.
func RequireAuth(validator services.TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return unauthenticated(c, "Bearer token required")
		}

		principal, err := validator.ValidateToken(token)
		if err != nil {
			log.Printf("Token rejected for %s %s: %v", c.Method(), c.OriginalURL(), err)
			return unauthenticated(c, "Invalid or expired token")
		}

		c.Locals(LocalUserID, principal.ID)
		c.Locals(LocalUserEmail, principal.Email)
		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="recipe-board"`)
	return utils.ErrorResponse(c, message, fiber.StatusUnauthorized, types.TypeUnauthenticated)
}
