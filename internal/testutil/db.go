// Package testutil holds database setup and fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/localnerve/recipe-board/internal/database"
	"github.com/localnerve/recipe-board/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB creates a migrated in-memory SQLite database for testing.
// A single connection keeps every statement on the same in-memory database,
// so code under test must use only the tx it is handed inside a transaction.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying SQL DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// ColumnSpec describes a column to seed and the titles of its cards, in order.
type ColumnSpec struct {
	Title string
	Cards []string
	Limit *int
}

// SeedBoard creates a board for owner with the given columns and cards,
// all densely ordered, and returns it fully loaded.
func SeedBoard(t testing.TB, db *gorm.DB, owner, title string, columns ...ColumnSpec) *models.Board {
	t.Helper()
	if err := db.FirstOrCreate(&models.User{ID: owner, Email: owner + "@example.com"}).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	board := models.Board{Title: title, OwnerID: owner}
	if err := db.Create(&board).Error; err != nil {
		t.Fatalf("Failed to seed board: %v", err)
	}
	for i, spec := range columns {
		col := models.Column{BoardID: board.ID, Title: spec.Title, Order: i, Limit: spec.Limit}
		if err := db.Create(&col).Error; err != nil {
			t.Fatalf("Failed to seed column %s: %v", spec.Title, err)
		}
		for j, cardTitle := range spec.Cards {
			card := models.Card{ColumnID: col.ID, Title: cardTitle, Order: j}
			if err := db.Create(&card).Error; err != nil {
				t.Fatalf("Failed to seed card %s: %v", cardTitle, err)
			}
		}
	}
	return LoadBoard(t, db, board.ID)
}

// LoadBoard reads a board with columns and cards in persisted order.
func LoadBoard(t testing.TB, db *gorm.DB, boardID string) *models.Board {
	t.Helper()
	var board models.Board
	err := db.
		Preload("Columns", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order") }).
		Preload("Columns.Cards", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order") }).
		Preload("Columns.Cards.Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq") }).
		First(&board, "id = ?", boardID).Error
	if err != nil {
		t.Fatalf("Failed to load board %s: %v", boardID, err)
	}
	return &board
}

// ColumnByTitle finds a seeded column by title.
func ColumnByTitle(t testing.TB, board *models.Board, title string) models.Column {
	t.Helper()
	for _, col := range board.Columns {
		if col.Title == title {
			return col
		}
	}
	t.Fatalf("Column %q not on board %s", title, board.ID)
	return models.Column{}
}

// CardByTitle finds a seeded card by title anywhere on the board.
func CardByTitle(t testing.TB, board *models.Board, title string) models.Card {
	t.Helper()
	for _, col := range board.Columns {
		for _, card := range col.Cards {
			if card.Title == title {
				return card
			}
		}
	}
	t.Fatalf("Card %q not on board %s", title, board.ID)
	return models.Card{}
}

// CardTitles returns the titles of a column's cards ordered by sort_order,
// failing the test when the orders are not exactly 0..n-1.
func CardTitles(t testing.TB, db *gorm.DB, columnID string) []string {
	t.Helper()
	var cards []models.Card
	if err := db.Where("column_id = ?", columnID).Order("sort_order").Find(&cards).Error; err != nil {
		t.Fatalf("Failed to read cards: %v", err)
	}
	titles := make([]string, len(cards))
	for i, c := range cards {
		if c.Order != i {
			t.Fatalf("Column %s is not dense: card %s has order %d at position %d", columnID, c.Title, c.Order, i)
		}
		titles[i] = c.Title
	}
	return titles
}

// ColumnTitles returns the titles of a board's columns ordered by sort_order,
// failing the test when the orders are not exactly 0..n-1.
func ColumnTitles(t testing.TB, db *gorm.DB, boardID string) []string {
	t.Helper()
	var cols []models.Column
	if err := db.Where("board_id = ?", boardID).Order("sort_order").Find(&cols).Error; err != nil {
		t.Fatalf("Failed to read columns: %v", err)
	}
	titles := make([]string, len(cols))
	for i, c := range cols {
		if c.Order != i {
			t.Fatalf("Board %s is not dense: column %s has order %d at position %d", boardID, c.Title, c.Order, i)
		}
		titles[i] = c.Title
	}
	return titles
}
