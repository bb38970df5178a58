// main.go
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

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/localnerve/recipe-board/internal/config"
	"github.com/localnerve/recipe-board/internal/database"
	"github.com/localnerve/recipe-board/internal/server"
	"github.com/localnerve/recipe-board/internal/services"
)

// @title Recipe Board API
// @version 1.0.0
// @description Kanban board service for recipe development
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/recipe-board
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3001
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	validator, err := services.NewTokenValidator(cfg)
	if err != nil {
		log.Fatalf("Failed to create token validator: %v", err)
	}
	if cfg.AuthMode == config.AuthModeAuthorizer {
		// The client is created on the first authenticated request
		log.Printf("Authorizer will be initialized on first authenticated request")
	}

	deps := server.Deps{Config: cfg, DB: db, Validator: validator}

	if cfg.WebhookSecret != "" {
		deps.Webhooks, err = services.NewWebhookVerifier(cfg.WebhookSecret)
		if err != nil {
			log.Fatalf("Failed to create webhook verifier: %v", err)
		}
	}

	if cfg.RedisURL != "" {
		deps.Ledger, err = services.NewRedisLedger(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer deps.Ledger.Close()
	}

	app := server.New(deps)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}
