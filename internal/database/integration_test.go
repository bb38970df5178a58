package database_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/localnerve/recipe-board/internal/database"
	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/testutil"
	"gorm.io/gorm"
)

// TestIntegrationMigrate runs the migrations against real database servers.
// Set INTEGRATION_DB_TYPES (e.g. "mariadb,postgres") to enable it.
func TestIntegrationMigrate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	types := os.Getenv("INTEGRATION_DB_TYPES")
	if types == "" {
		t.Skip("INTEGRATION_DB_TYPES not set")
	}

	for _, dbType := range strings.Split(types, ",") {
		dbType = strings.TrimSpace(dbType)
		t.Run(dbType, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
			defer cancel()

			containers := &testutil.Containers{}
			defer containers.Terminate(context.Background())
			if err := containers.StartDatabase(ctx, dbType); err != nil {
				t.Fatalf("Failed to start %s: %v", dbType, err)
			}

			var db *gorm.DB
			var err error
			for i := 0; i < 30; i++ {
				if db, err = database.Connect(containers.DBConfig); err == nil {
					break
				}
				time.Sleep(time.Second)
			}
			if err != nil {
				t.Fatalf("Failed to connect: %v", err)
			}
			defer database.Close(db)

			if err := database.AutoMigrate(db); err != nil {
				t.Fatalf("AutoMigrate failed: %v", err)
			}

			board := testutil.SeedBoard(t, db, "owner-it", "Integration",
				testutil.ColumnSpec{Title: "Todo", Cards: []string{"A", "B"}},
				testutil.ColumnSpec{Title: "Done"},
			)
			if len(board.Columns) != 2 || len(board.Columns[0].Cards) != 2 {
				t.Fatalf("Unexpected board shape: %+v", board)
			}

			card := board.Columns[0].Cards[0]
			card.Labels = models.StringList{"dessert"}
			card.Instructions = models.StringList{"mix", "bake"}
			if err := db.Save(&card).Error; err != nil {
				t.Fatalf("Failed to save json columns: %v", err)
			}
			var reread models.Card
			if err := db.First(&reread, "id = ?", card.ID).Error; err != nil {
				t.Fatal(err)
			}
			if len(reread.Instructions) != 2 || reread.Instructions[1] != "bake" {
				t.Errorf("Unexpected instructions %v", reread.Instructions)
			}
		})
	}
}
