package services

import (
	"errors"
	"slices"
	"testing"

	"github.com/localnerve/recipe-board/internal/testutil"
	"github.com/localnerve/recipe-board/internal/types"
	"gorm.io/gorm"
)

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func expectErrorType(t *testing.T, err error, errorType string) {
	t.Helper()
	var ce *types.CustomError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected %s error, got %v", errorType, err)
	}
	if ce.Type != errorType {
		t.Fatalf("Expected %s error, got %s: %s", errorType, ce.Type, ce.Message)
	}
}

func expectTitles(t *testing.T, got []string, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
}

// countUpdates counts UPDATE statements issued through db from now on
func countUpdates(t *testing.T, db *gorm.DB) *int {
	t.Helper()
	n := new(int)
	err := db.Callback().Update().Before("gorm:update").Register("test:count_updates", func(*gorm.DB) {
		*n++
	})
	expectNoError(t, err)
	return n
}

// failNthUpdate makes the nth UPDATE statement issued through db fail
func failNthUpdate(t *testing.T, db *gorm.DB, nth int) {
	t.Helper()
	n := 0
	err := db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		n++
		if n == nth {
			tx.AddError(errors.New("injected write failure"))
		}
	})
	expectNoError(t, err)
}

// todoBoard seeds the board used by most tests: Todo [A B C], Doing [D], Done []
func todoBoard(t *testing.T, db *gorm.DB, owner string) (todo, doing, done string) {
	t.Helper()
	board := testutil.SeedBoard(t, db, owner, "Recipes",
		testutil.ColumnSpec{Title: "Todo", Cards: []string{"A", "B", "C"}},
		testutil.ColumnSpec{Title: "Doing", Cards: []string{"D"}},
		testutil.ColumnSpec{Title: "Done"},
	)
	return board.Columns[0].ID, board.Columns[1].ID, board.Columns[2].ID
}
