// webhooks.go
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
	"context"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recipe-board/internal/metrics"
	"github.com/localnerve/recipe-board/internal/services"
	"github.com/localnerve/recipe-board/internal/types"
	"github.com/localnerve/recipe-board/internal/utils"
	"gorm.io/gorm"
)

// WebhookHandler receives signed identity provider user events
type WebhookHandler struct {
	DB       *gorm.DB
	Verifier *services.WebhookVerifier
	// Ledger de-duplicates deliveries; nil accepts every delivery
	Ledger services.DeliveryLedger
}

// webhookHeader reads a signature header under either of its known prefixes
func webhookHeader(c *fiber.Ctx, name string) string {
	if v := c.Get("webhook-" + name); v != "" {
		return v
	}
	return c.Get("svix-" + name)
}

// UserEvents handles POST /api/webhooks/users
// @Summary Receive user lifecycle events
// @Description user.created and user.updated upsert the user; user.deleted removes the user and every board it owns
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param webhook-id header string true "Delivery ID"
// @Param webhook-timestamp header string true "Unix seconds"
// @Param webhook-signature header string true "v1,<base64 HMAC-SHA256>"
// @Success 200 {object} utils.MutationSuccessStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /webhooks/users [post]
func (h *WebhookHandler) UserEvents(c *fiber.Ctx) error {
	id := webhookHeader(c, "id")
	body := c.Body()

	if err := h.Verifier.Verify(id, webhookHeader(c, "timestamp"), webhookHeader(c, "signature"), body); err != nil {
		metrics.ObserveWebhook("rejected")
		log.Printf("Webhook %s rejected: %v", id, err)
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnauthorized, types.TypeUnauthenticated)
	}

	var evt services.UserEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		metrics.ObserveWebhook("rejected")
		return utils.HandleError(c, types.NewValidation("Invalid event payload: %v", err))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if h.Ledger != nil {
		first, err := h.Ledger.FirstDelivery(ctx, id)
		if err != nil {
			log.Printf("Webhook ledger unavailable, applying %s anyway: %v", id, err)
		} else if !first {
			metrics.ObserveWebhook("duplicate")
			return utils.MutationSuccessResponse(c)
		}
	}

	if err := services.ApplyUserEvent(h.DB, evt); err != nil {
		metrics.ObserveWebhook("failed")
		if h.Ledger != nil {
			if ferr := h.Ledger.Forget(ctx, id); ferr != nil {
				log.Printf("Failed to release webhook %s for retry: %v", id, ferr)
			}
		}
		return utils.HandleError(c, types.NewInternal("Failed to apply user event", err))
	}

	metrics.ObserveWebhook("applied")
	return utils.MutationSuccessResponse(c)
}
