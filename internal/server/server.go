// server.go
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

// Package server assembles the fiber application and its route table.
package server

import (
	"errors"
	"log"
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/recipe-board/internal/config"
	"github.com/localnerve/recipe-board/internal/handlers"
	"github.com/localnerve/recipe-board/internal/middleware"
	"github.com/localnerve/recipe-board/internal/services"
	"github.com/localnerve/recipe-board/internal/types"
	"github.com/localnerve/recipe-board/internal/utils"
	"gorm.io/gorm"

	_ "github.com/localnerve/recipe-board/docs/api" // Swagger docs
)

// httpMetrics registers the HTTP collectors once per process; every app
// built by New shares them
var httpMetrics = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New("recipe-board")
})

// Deps are the collaborators the routes are wired to
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Validator services.TokenValidator
	// Webhooks is nil when WEBHOOK_SECRET is unset
	Webhooks *services.WebhookVerifier
	// Ledger is nil when REDIS_URL is unset
	Ledger *services.RedisLedger
	// Quiet drops the access log, for tests
	Quiet bool
}

// New creates the fiber app with middleware and every route
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		AppName:      "recipe-board",

		DisableStartupMessage: deps.Quiet,
	})

	// Global middleware
	app.Use(recover.New())
	if !deps.Quiet {
		app.Use(logger.New())
	}
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Config.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.HeaderAPIVersion,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// Prometheus metrics
	prometheus := httpMetrics()
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	health := &handlers.HealthHandler{Config: deps.Config, DB: deps.DB}
	if deps.Ledger != nil {
		health.Redis = deps.Ledger
	}
	app.Get("/health", health.Health)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	if deps.Webhooks != nil {
		webhooks := &handlers.WebhookHandler{DB: deps.DB, Verifier: deps.Webhooks}
		if deps.Ledger != nil {
			webhooks.Ledger = deps.Ledger
		}
		api.Post("/webhooks/users", webhooks.UserEvents)
	} else {
		log.Println("WEBHOOK_SECRET not set, user webhooks disabled")
	}

	auth := middleware.RequireAuth(deps.Validator)
	boards := &handlers.BoardHandler{DB: deps.DB, AutoProvision: deps.Config.AutoProvision}
	columns := &handlers.ColumnHandler{DB: deps.DB}
	cards := &handlers.CardHandler{DB: deps.DB}

	api.Get("/boards", auth, boards.GetBoards)
	api.Post("/boards", auth, boards.CreateBoard)
	api.Put("/boards/:boardId", auth, boards.UpdateBoard)
	api.Delete("/boards/:boardId", auth, boards.DeleteBoard)
	api.Put("/boards/:boardId/columns", auth, boards.ReorderColumns)

	api.Post("/columns", auth, columns.CreateColumn)
	api.Put("/columns/:columnId", auth, columns.UpdateColumn)
	api.Put("/columns/:columnId/cards", auth, columns.MoveCards)
	api.Put("/columns/:columnId/reorder", auth, columns.ReorderColumns)
	api.Delete("/columns/:columnId", auth, columns.DeleteColumn)

	api.Post("/cards", auth, cards.CreateCard)
	api.Put("/cards/:cardId", auth, cards.UpdateCard)
	api.Delete("/cards/:cardId", auth, cards.DeleteCard)
	api.Post("/cards/:cardId/ingredients", auth, cards.AddIngredient)
	api.Delete("/ingredients/:ingredientId", auth, cards.DeleteIngredient)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, "[404] Resource Not Found", fiber.StatusNotFound, types.TypeNotFound)
	})

	return app
}

// errorHandler renders framework errors and recovered panics in the
// standard envelope
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	errorType := types.TypeInternal

	var fe *fiber.Error
	var ce *types.CustomError
	switch {
	case errors.As(err, &ce):
		return utils.CustomErrorResponse(c, ce)
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
		switch {
		case code == fiber.StatusNotFound:
			errorType = types.TypeNotFound
		case code < fiber.StatusInternalServerError:
			errorType = types.TypeValidation
		}
	default:
		log.Printf("%s %s failed: %v", c.Method(), c.OriginalURL(), err)
	}

	return utils.ErrorResponse(c, message, code, errorType)
}
