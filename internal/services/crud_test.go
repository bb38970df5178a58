package services

import (
	"math/rand"
	"testing"

	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/testutil"
	"github.com/localnerve/recipe-board/internal/types"
)

func intPtr(i int) *int             { return &i }
func strPtr(s string) *string       { return &s }
func listPtr(s ...string) *[]string { return &s }

func TestGetBoardsProvisionsDefaultBoardOnce(t *testing.T) {
	db := testutil.NewDB(t)

	boards, err := GetBoards(db, "newcomer", false)
	expectNoError(t, err)
	if len(boards) != 0 {
		t.Fatalf("Expected no boards without provisioning, got %d", len(boards))
	}

	boards, err = GetBoards(db, "newcomer", true)
	expectNoError(t, err)
	if len(boards) != 1 || boards[0].Title != "Recipe Development" {
		t.Fatalf("Expected the default board, got %+v", boards)
	}
	expectTitles(t, testutil.ColumnTitles(t, db, boards[0].ID), "To Do", "In Progress", "Testing", "Completed")
	if l := boards[0].Columns[1].Limit; l == nil || *l != 3 {
		t.Errorf("Expected In Progress limit 3, got %v", l)
	}

	again, err := GetBoards(db, "newcomer", true)
	expectNoError(t, err)
	if len(again) != 1 || again[0].ID != boards[0].ID {
		t.Errorf("Expected provisioning to happen once, got %d boards", len(again))
	}

	var user models.User
	expectNoError(t, db.First(&user, "id = ?", "newcomer").Error)

	created, err := ProvisionDefaultBoard(db, "newcomer")
	expectNoError(t, err)
	if created != nil {
		t.Error("Expected no board for an owner who has one")
	}
}

func TestGetBoardsNestsInOrder(t *testing.T) {
	db := testutil.NewDB(t)
	todo, _, _ := todoBoard(t, db, "alice")
	ids := cardIDs(t, db, todo)
	expectNoError(t, MoveCards(db, "alice", todo, []CardOrder{{ID: ids["C"], Order: 0}}))
	testutil.SeedBoard(t, db, "bob", "Bob", testutil.ColumnSpec{Title: "Inbox"})

	boards, err := GetBoards(db, "alice", true)
	expectNoError(t, err)
	if len(boards) != 1 {
		t.Fatalf("Expected only alice's board, got %d", len(boards))
	}
	cols := boards[0].Columns
	if len(cols) != 3 || cols[0].Title != "Todo" || cols[2].Title != "Done" {
		t.Fatalf("Unexpected columns %+v", cols)
	}
	var titles []string
	for _, c := range cols[0].Cards {
		titles = append(titles, c.Title)
	}
	expectTitles(t, titles, "C", "A", "B")
}

func TestBoardCRUD(t *testing.T) {
	db := testutil.NewDB(t)

	_, err := CreateBoard(db, "alice", "   ")
	expectErrorType(t, err, types.TypeValidation)

	board, err := CreateBoard(db, "alice", " Weeknight dinners ")
	expectNoError(t, err)
	if board.Title != "Weeknight dinners" || board.OwnerID != "alice" || board.Columns == nil {
		t.Errorf("Unexpected board %+v", board)
	}

	renamed, err := UpdateBoard(db, "alice", board.ID, "Weekend dinners")
	expectNoError(t, err)
	if renamed.Title != "Weekend dinners" {
		t.Errorf("Expected rename, got %s", renamed.Title)
	}
	_, err = UpdateBoard(db, "bob", board.ID, "Mine now")
	expectErrorType(t, err, types.TypeNotFound)

	col, err := CreateColumn(db, "alice", CreateColumnInput{BoardID: board.ID, Title: "Todo"})
	expectNoError(t, err)
	_, err = CreateCard(db, "alice", CreateCardInput{
		ColumnID:    col.ID,
		Title:       "Soup",
		Ingredients: []IngredientInput{{Name: "leek", Quantity: 2, Unit: "piece"}},
	})
	expectNoError(t, err)

	expectErrorType(t, DeleteBoard(db, "bob", board.ID), types.TypeNotFound)
	expectNoError(t, DeleteBoard(db, "alice", board.ID))

	for _, model := range []interface{}{&models.Board{}, &models.Column{}, &models.Card{}, &models.Ingredient{}} {
		var count int64
		expectNoError(t, db.Model(model).Count(&count).Error)
		if count != 0 {
			t.Errorf("Expected %T rows to be deleted, %d left", model, count)
		}
	}
}

func TestCreateColumnAtPosition(t *testing.T) {
	db := testutil.NewDB(t)
	board := testutil.SeedBoard(t, db, "alice", "Recipes", testutil.ColumnSpec{Title: "A"}, testutil.ColumnSpec{Title: "B"})

	col, err := CreateColumn(db, "alice", CreateColumnInput{BoardID: board.ID, Title: "Front", Order: intPtr(0), Limit: intPtr(4)})
	expectNoError(t, err)
	if col.Order != 0 || col.Limit == nil || *col.Limit != 4 {
		t.Errorf("Unexpected column %+v", col)
	}
	_, err = CreateColumn(db, "alice", CreateColumnInput{BoardID: board.ID, Title: "Back"})
	expectNoError(t, err)
	_, err = CreateColumn(db, "alice", CreateColumnInput{BoardID: board.ID, Title: "Far", Order: intPtr(99)})
	expectNoError(t, err)
	expectTitles(t, testutil.ColumnTitles(t, db, board.ID), "Front", "A", "B", "Back", "Far")

	_, err = CreateColumn(db, "bob", CreateColumnInput{BoardID: board.ID, Title: "Sneaky"})
	expectErrorType(t, err, types.TypeNotFound)
	_, err = CreateColumn(db, "alice", CreateColumnInput{BoardID: board.ID, Title: ""})
	expectErrorType(t, err, types.TypeValidation)
	_, err = CreateColumn(db, "alice", CreateColumnInput{Title: "No board"})
	expectErrorType(t, err, types.TypeValidation)
	_, err = CreateColumn(db, "alice", CreateColumnInput{BoardID: board.ID, Title: "Bad", Limit: intPtr(-1)})
	expectErrorType(t, err, types.TypeValidation)
}

func TestUpdateColumn(t *testing.T) {
	db := testutil.NewDB(t)
	board := testutil.SeedBoard(t, db, "alice", "Recipes",
		testutil.ColumnSpec{Title: "Todo", Cards: []string{"A"}, Limit: intPtr(5)})
	colID := board.Columns[0].ID

	col, err := UpdateColumn(db, "alice", colID, UpdateColumnInput{Title: strPtr("Backlog")})
	expectNoError(t, err)
	if col.Title != "Backlog" || col.Limit == nil || *col.Limit != 5 || len(col.Cards) != 1 {
		t.Errorf("Expected only the title to change, got %+v", col)
	}

	col, err = UpdateColumn(db, "alice", colID, UpdateColumnInput{Limit: intPtr(0)})
	expectNoError(t, err)
	if col.Limit != nil || col.Title != "Backlog" {
		t.Errorf("Expected limit 0 to clear the limit, got %+v", col)
	}

	_, err = UpdateColumn(db, "alice", colID, UpdateColumnInput{Limit: intPtr(-2)})
	expectErrorType(t, err, types.TypeValidation)
	_, err = UpdateColumn(db, "alice", colID, UpdateColumnInput{Title: strPtr(" ")})
	expectErrorType(t, err, types.TypeValidation)
	_, err = UpdateColumn(db, "bob", colID, UpdateColumnInput{Title: strPtr("Mine")})
	expectErrorType(t, err, types.TypeNotFound)
}

func TestDeleteColumnCompactsAndCascades(t *testing.T) {
	db := testutil.NewDB(t)
	todo, doing, _ := todoBoard(t, db, "alice")
	var board models.Board
	expectNoError(t, db.First(&board, "owner_id = ?", "alice").Error)

	expectErrorType(t, DeleteColumn(db, "bob", todo), types.TypeNotFound)
	expectNoError(t, DeleteColumn(db, "alice", todo))

	expectTitles(t, testutil.ColumnTitles(t, db, board.ID), "Doing", "Done")
	expectTitles(t, testutil.CardTitles(t, db, todo))
	var cards int64
	expectNoError(t, db.Model(&models.Card{}).Count(&cards).Error)
	if cards != 1 {
		t.Errorf("Expected only card D left, got %d cards", cards)
	}
	expectTitles(t, testutil.CardTitles(t, db, doing), "D")
}

func TestCreateCardAtPosition(t *testing.T) {
	db := testutil.NewDB(t)
	todo, _, done := todoBoard(t, db, "alice")

	card, err := CreateCard(db, "alice", CreateCardInput{
		ColumnID:     todo,
		Title:        "Pesto",
		Description:  "Basil, lots",
		Order:        intPtr(1),
		Status:       strPtr("ACTIVE"),
		Instructions: []string{"blend", "season"},
		Labels:       []string{"sauce"},
		Ingredients: []IngredientInput{
			{Name: "basil", Quantity: 50, Unit: "G"},
			{Name: "oil", Quantity: 0.5, Unit: "cup"},
		},
	})
	expectNoError(t, err)
	if card.Order != 1 || card.Status != models.StatusFullyStocked {
		t.Errorf("Unexpected card %+v", card)
	}
	if len(card.Ingredients) != 2 || card.Ingredients[0].Name != "basil" || card.Ingredients[1].Unit != models.UnitCup {
		t.Errorf("Unexpected ingredients %+v", card.Ingredients)
	}
	expectTitles(t, testutil.CardTitles(t, db, todo), "A", "Pesto", "B", "C")

	// empty column, any index yields order 0
	first, err := CreateCard(db, "alice", CreateCardInput{ColumnID: done, Title: "Stock", Order: intPtr(7)})
	expectNoError(t, err)
	if first.Order != 0 || first.Status != models.StatusDormant {
		t.Errorf("Unexpected card %+v", first)
	}

	invalid := []CreateCardInput{
		{ColumnID: todo},
		{Title: "No column"},
		{ColumnID: todo, Title: "Bad status", Status: strPtr("COOKING")},
		{ColumnID: todo, Title: "Bad qty", Ingredients: []IngredientInput{{Name: "salt", Quantity: -1, Unit: "G"}}},
		{ColumnID: todo, Title: "Bad unit", Ingredients: []IngredientInput{{Name: "salt", Quantity: 1, Unit: "OZ"}}},
		{ColumnID: todo, Title: "No name", Ingredients: []IngredientInput{{Quantity: 1, Unit: "G"}}},
	}
	for _, in := range invalid {
		_, err := CreateCard(db, "alice", in)
		expectErrorType(t, err, types.TypeValidation)
	}
	_, err = CreateCard(db, "bob", CreateCardInput{ColumnID: todo, Title: "Sneaky"})
	expectErrorType(t, err, types.TypeNotFound)
	expectTitles(t, testutil.CardTitles(t, db, todo), "A", "Pesto", "B", "C")
}

func TestUpdateCardReplacesIngredients(t *testing.T) {
	db := testutil.NewDB(t)
	todo, _, _ := todoBoard(t, db, "alice")
	card, err := CreateCard(db, "alice", CreateCardInput{
		ColumnID: todo,
		Title:    "Bread",
		Ingredients: []IngredientInput{
			{Name: "flour", Quantity: 500, Unit: "G"},
			{Name: "water", Quantity: 350, Unit: "ML"},
			{Name: "salt", Quantity: 1, Unit: "TSP"},
		},
	})
	expectNoError(t, err)
	oldIDs := map[string]bool{}
	for _, ing := range card.Ingredients {
		oldIDs[ing.ID] = true
	}

	updated, err := UpdateCard(db, "alice", card.ID, UpdateCardInput{
		Ingredients: &[]IngredientInput{
			{Name: "rye", Quantity: 400, Unit: "G"},
			{Name: "starter", Quantity: 100, Unit: "G"},
		},
	})
	expectNoError(t, err)
	if len(updated.Ingredients) != 2 || updated.Ingredients[0].Name != "rye" {
		t.Fatalf("Expected the new ingredient list, got %+v", updated.Ingredients)
	}
	for _, ing := range updated.Ingredients {
		if oldIDs[ing.ID] {
			t.Errorf("Expected a fresh id, %s was reused", ing.ID)
		}
	}
	var rows int64
	expectNoError(t, db.Model(&models.Ingredient{}).Where("card_id = ?", card.ID).Count(&rows).Error)
	if rows != 2 {
		t.Errorf("Expected exactly 2 ingredient rows, got %d", rows)
	}
	if updated.Title != "Bread" {
		t.Errorf("Expected omitted fields to stay, got title %s", updated.Title)
	}
}

func TestUpdateCardPartialFields(t *testing.T) {
	db := testutil.NewDB(t)
	todo, _, _ := todoBoard(t, db, "alice")
	ids := cardIDs(t, db, todo)
	_, err := UpdateCard(db, "alice", ids["B"], UpdateCardInput{
		Instructions: listPtr("chop", "fry"),
		Labels:       listPtr("quick"),
	})
	expectNoError(t, err)

	updated, err := UpdateCard(db, "alice", ids["B"], UpdateCardInput{
		Description:  strPtr("Crispy"),
		Status:       strPtr("low_stock"),
		Instructions: listPtr("fry"),
	})
	expectNoError(t, err)
	if updated.Description != "Crispy" || updated.Status != models.StatusLowStock {
		t.Errorf("Unexpected card %+v", updated)
	}
	if len(updated.Instructions) != 1 || updated.Instructions[0] != "fry" {
		t.Errorf("Expected instructions to be replaced, got %v", updated.Instructions)
	}
	if len(updated.Labels) != 1 || updated.Labels[0] != "quick" {
		t.Errorf("Expected labels untouched, got %v", updated.Labels)
	}
	if updated.Order != 1 || updated.ColumnID != todo {
		t.Errorf("Expected position untouched, got %s/%d", updated.ColumnID, updated.Order)
	}

	_, err = UpdateCard(db, "alice", ids["B"], UpdateCardInput{Status: strPtr("BURNT")})
	expectErrorType(t, err, types.TypeValidation)
	_, err = UpdateCard(db, "bob", ids["B"], UpdateCardInput{Title: strPtr("Mine")})
	expectErrorType(t, err, types.TypeNotFound)
	_, err = UpdateCard(db, "alice", "missing", UpdateCardInput{Title: strPtr("Ghost")})
	expectErrorType(t, err, types.TypeNotFound)
}

func TestUpdateCardMovesAcrossColumns(t *testing.T) {
	db := testutil.NewDB(t)
	board := testutil.SeedBoard(t, db, "alice", "Recipes",
		testutil.ColumnSpec{Title: "X", Cards: []string{"X1", "C", "X2"}},
		testutil.ColumnSpec{Title: "Y", Cards: []string{"Y1", "Y2"}},
	)
	x, y := board.Columns[0].ID, board.Columns[1].ID
	c := testutil.CardByTitle(t, board, "C")

	moved, err := UpdateCard(db, "alice", c.ID, UpdateCardInput{ColumnID: &y, Order: intPtr(1)})
	expectNoError(t, err)
	if moved.ColumnID != y || moved.Order != 1 {
		t.Errorf("Expected C at Y[1], got %s[%d]", moved.ColumnID, moved.Order)
	}
	expectTitles(t, testutil.CardTitles(t, db, x), "X1", "X2")
	expectTitles(t, testutil.CardTitles(t, db, y), "Y1", "C", "Y2")

	// same column reorder by order alone, clamped to the end
	_, err = UpdateCard(db, "alice", c.ID, UpdateCardInput{Order: intPtr(10)})
	expectNoError(t, err)
	expectTitles(t, testutil.CardTitles(t, db, y), "Y1", "Y2", "C")

	// column change without order appends
	_, err = UpdateCard(db, "alice", c.ID, UpdateCardInput{ColumnID: &x})
	expectNoError(t, err)
	expectTitles(t, testutil.CardTitles(t, db, x), "X1", "X2", "C")
	expectTitles(t, testutil.CardTitles(t, db, y), "Y1", "Y2")

	bob := testutil.SeedBoard(t, db, "bob", "Bob", testutil.ColumnSpec{Title: "Inbox"})
	_, err = UpdateCard(db, "alice", c.ID, UpdateCardInput{ColumnID: &bob.Columns[0].ID})
	expectErrorType(t, err, types.TypeNotFound)
	expectTitles(t, testutil.CardTitles(t, db, x), "X1", "X2", "C")
}

func TestDeleteCardCompacts(t *testing.T) {
	db := testutil.NewDB(t)
	todo, _, _ := todoBoard(t, db, "alice")
	ids := cardIDs(t, db, todo)
	_, err := AddIngredient(db, "alice", ids["A"], IngredientInput{Name: "egg", Quantity: 2, Unit: "PIECE"})
	expectNoError(t, err)

	expectErrorType(t, DeleteCard(db, "bob", ids["A"]), types.TypeNotFound)
	expectNoError(t, DeleteCard(db, "alice", ids["A"]))
	expectTitles(t, testutil.CardTitles(t, db, todo), "B", "C")

	var rows int64
	expectNoError(t, db.Model(&models.Ingredient{}).Count(&rows).Error)
	if rows != 0 {
		t.Errorf("Expected ingredients to be deleted with the card, %d left", rows)
	}
}

func TestIngredientCRUD(t *testing.T) {
	db := testutil.NewDB(t)
	todo, _, _ := todoBoard(t, db, "alice")
	ids := cardIDs(t, db, todo)

	first, err := AddIngredient(db, "alice", ids["A"], IngredientInput{Name: "milk", Quantity: 1, Unit: "L"})
	expectNoError(t, err)
	second, err := AddIngredient(db, "alice", ids["A"], IngredientInput{Name: "sugar", Quantity: 2, Unit: "TBSP"})
	expectNoError(t, err)
	if first.Seq != 0 || second.Seq != 1 {
		t.Errorf("Expected appended sequence 0,1, got %d,%d", first.Seq, second.Seq)
	}

	_, err = AddIngredient(db, "bob", ids["A"], IngredientInput{Name: "salt", Quantity: 1, Unit: "PINCH"})
	expectErrorType(t, err, types.TypeNotFound)
	_, err = AddIngredient(db, "alice", ids["A"], IngredientInput{Name: "salt", Quantity: -3, Unit: "PINCH"})
	expectErrorType(t, err, types.TypeValidation)

	expectErrorType(t, DeleteIngredient(db, "bob", first.ID), types.TypeNotFound)
	expectNoError(t, DeleteIngredient(db, "alice", first.ID))
	expectErrorType(t, DeleteIngredient(db, "alice", first.ID), types.TypeNotFound)

	card, err := loadCard(db, ids["A"])
	expectNoError(t, err)
	if len(card.Ingredients) != 1 || card.Ingredients[0].ID != second.ID {
		t.Errorf("Expected only sugar left, got %+v", card.Ingredients)
	}
}

// Random creates, moves and deletes through the services never break density.
func TestDensityThroughServices(t *testing.T) {
	db := testutil.NewDB(t)
	todo, doing, done := todoBoard(t, db, "alice")
	columns := []string{todo, doing, done}
	var board models.Board
	expectNoError(t, db.First(&board, "owner_id = ?", "alice").Error)
	rng := rand.New(rand.NewSource(7))

	for step := 0; step < 60; step++ {
		col := columns[rng.Intn(len(columns))]
		var cards []models.Card
		expectNoError(t, db.Where("column_id = ?", col).Find(&cards).Error)

		switch op := rng.Intn(5); {
		case op == 0 || len(cards) == 0:
			_, err := CreateCard(db, "alice", CreateCardInput{ColumnID: col, Title: "card", Order: intPtr(rng.Intn(5))})
			expectNoError(t, err)
		case op == 1:
			dest := columns[rng.Intn(len(columns))]
			_, err := UpdateCard(db, "alice", cards[rng.Intn(len(cards))].ID, UpdateCardInput{ColumnID: &dest, Order: intPtr(rng.Intn(5))})
			expectNoError(t, err)
		case op == 2:
			dest := columns[rng.Intn(len(columns))]
			err := MoveCards(db, "alice", dest, []CardOrder{{ID: cards[rng.Intn(len(cards))].ID, Order: rng.Intn(5), ColumnID: dest}})
			expectNoError(t, err)
		case op == 3:
			expectNoError(t, DeleteCard(db, "alice", cards[rng.Intn(len(cards))].ID))
		case op == 4:
			expectNoError(t, ReorderColumns(db, "alice", board.ID, []ColumnOrder{{ID: col, Order: rng.Intn(4)}}))
		}

		for _, c := range columns {
			testutil.CardTitles(t, db, c) // fails on gaps or duplicates
		}
		testutil.ColumnTitles(t, db, board.ID)
	}
}
