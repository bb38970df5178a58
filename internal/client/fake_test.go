package client

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/ordering"
)

// fakeAPI is an in-memory BoardAPI. It applies mutations to its own copy of
// the boards, which GetBoards returns as the authoritative state.
type fakeAPI struct {
	mu     sync.Mutex
	boards []models.Board
	fail   map[string]error
	getErr error
	gets   int
	seq    int

	sentCards   []CardOrder
	sentColumns []ColumnOrder

	// hold, when set, parks the next GetBoards after it has taken its snapshot
	hold *fetchHold
}

type fetchHold struct {
	entered chan struct{}
	release chan struct{}
}

func newFakeAPI(boards ...models.Board) *fakeAPI {
	return &fakeAPI{boards: boards, fail: map[string]error{}}
}

// failNext makes the next call of op return err
func (f *fakeAPI) failNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeAPI) take(op string) error {
	err := f.fail[op]
	delete(f.fail, op)
	return err
}

func (f *fakeAPI) setGetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

func (f *fakeAPI) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeAPI) board() *models.Board { return &f.boards[0] }

func (f *fakeAPI) column(id string) *models.Column {
	return State{Columns: f.board().Columns}.Column(id)
}

func (f *fakeAPI) GetBoards(ctx context.Context) ([]models.Board, error) {
	f.mu.Lock()
	f.gets++
	if f.getErr != nil {
		err := f.getErr
		f.mu.Unlock()
		return nil, err
	}
	out := make([]models.Board, len(f.boards))
	for i, b := range f.boards {
		b.Columns = State{Columns: b.Columns}.clone().Columns
		out[i] = b
	}
	hold := f.hold
	f.hold = nil
	f.mu.Unlock()

	if hold != nil {
		hold.entered <- struct{}{}
		<-hold.release
	}
	return out, nil
}

func (f *fakeAPI) ReorderColumns(ctx context.Context, boardID string, entries []ColumnOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take("ReorderColumns"); err != nil {
		return err
	}
	f.sentColumns = entries
	pins := make([]ordering.Pin[models.Column], 0, len(entries))
	var rest []models.Column
	for _, col := range f.board().Columns {
		if at := slices.IndexFunc(entries, func(e ColumnOrder) bool { return e.ID == col.ID }); at >= 0 {
			pins = append(pins, ordering.Pin[models.Column]{Item: col, At: entries[at].Order})
		} else {
			rest = append(rest, col)
		}
	}
	f.board().Columns = ordering.Merge(pins, rest)
	f.renumber()
	return nil
}

func (f *fakeAPI) MoveCards(ctx context.Context, columnID string, entries []CardOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take("MoveCards"); err != nil {
		return err
	}
	f.sentCards = entries
	dst := f.column(columnID)
	if dst == nil {
		return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
	}

	var pins []ordering.Pin[models.Card]
	for _, e := range entries {
		for ci := range f.board().Columns {
			col := &f.board().Columns[ci]
			if at := slices.IndexFunc(col.Cards, func(c models.Card) bool { return c.ID == e.ID }); at >= 0 {
				pins = append(pins, ordering.Pin[models.Card]{Item: col.Cards[at], At: e.Order})
				col.Cards = slices.Delete(col.Cards, at, at+1)
				break
			}
		}
	}
	dst = f.column(columnID)
	dst.Cards = ordering.Merge(pins, dst.Cards)
	f.renumber()
	return nil
}

func (f *fakeAPI) CreateColumn(ctx context.Context, in NewColumn) (*models.Column, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take("CreateColumn"); err != nil {
		return nil, err
	}
	f.seq++
	col := models.Column{ID: fmt.Sprintf("col-%d", f.seq), BoardID: in.BoardID, Title: in.Title, Limit: in.Limit, Cards: []models.Card{}}
	at := len(f.board().Columns)
	if in.Order != nil {
		at = *in.Order
	}
	f.board().Columns = ordering.Insert(f.board().Columns, col, at)
	f.renumber()
	return f.columnCopy(col.ID), nil
}

func (f *fakeAPI) UpdateColumn(ctx context.Context, columnID string, patch ColumnPatch) (*models.Column, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take("UpdateColumn"); err != nil {
		return nil, err
	}
	col := f.column(columnID)
	if col == nil {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		col.Title = *patch.Title
	}
	return f.columnCopy(columnID), nil
}

func (f *fakeAPI) DeleteColumn(ctx context.Context, columnID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take("DeleteColumn"); err != nil {
		return err
	}
	f.board().Columns = slices.DeleteFunc(f.board().Columns, func(c models.Column) bool { return c.ID == columnID })
	f.renumber()
	return nil
}

func (f *fakeAPI) CreateCard(ctx context.Context, in NewCard) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take("CreateCard"); err != nil {
		return nil, err
	}
	col := f.column(in.ColumnID)
	if col == nil {
		return nil, ErrNotFound
	}
	f.seq++
	card := models.Card{ID: fmt.Sprintf("card-%d", f.seq), Title: in.Title, Status: models.StatusDormant}
	at := len(col.Cards)
	if in.Order != nil {
		at = *in.Order
	}
	col.Cards = ordering.Insert(col.Cards, card, at)
	f.renumber()
	return f.cardCopy(card.ID), nil
}

func (f *fakeAPI) UpdateCard(ctx context.Context, cardID string, patch CardPatch) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take("UpdateCard"); err != nil {
		return nil, err
	}
	card := f.cardRef(cardID)
	if card == nil {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		card.Title = *patch.Title
	}
	if patch.Moves() {
		moved := *card
		dstID, at := card.ColumnID, card.Order
		if patch.ColumnID != nil {
			dstID = *patch.ColumnID
		}
		if patch.Order != nil {
			at = *patch.Order
		}
		src := f.column(card.ColumnID)
		src.Cards = slices.DeleteFunc(src.Cards, func(c models.Card) bool { return c.ID == cardID })
		dst := f.column(dstID)
		dst.Cards = ordering.Insert(dst.Cards, moved, at)
		f.renumber()
	}
	return f.cardCopy(cardID), nil
}

func (f *fakeAPI) DeleteCard(ctx context.Context, cardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take("DeleteCard"); err != nil {
		return err
	}
	for ci := range f.board().Columns {
		col := &f.board().Columns[ci]
		col.Cards = slices.DeleteFunc(col.Cards, func(c models.Card) bool { return c.ID == cardID })
	}
	f.renumber()
	return nil
}

// cardRef points into the fake's storage
func (f *fakeAPI) cardRef(id string) *models.Card {
	st := State{Columns: f.board().Columns}
	if ci, at := st.findCard(id); ci >= 0 {
		return &st.Columns[ci].Cards[at]
	}
	return nil
}

func (f *fakeAPI) cardCopy(id string) *models.Card {
	out := *f.cardRef(id)
	return &out
}

func (f *fakeAPI) columnCopy(id string) *models.Column {
	out := *f.column(id)
	out.Cards = slices.Clone(out.Cards)
	return &out
}

func (f *fakeAPI) renumber() {
	st := State{Columns: f.board().Columns}
	st.renumberColumns()
	for i := range st.Columns {
		st.renumberCards(i)
	}
}

// fixture builds a board whose card ids equal their titles
func fixture(id string, columns ...[]string) models.Board {
	board := models.Board{ID: id, Title: "Board " + id}
	for i, cards := range columns {
		col := models.Column{ID: fmt.Sprintf("%s-c%d", id, i), BoardID: id, Title: fmt.Sprintf("Column %d", i), Order: i, Cards: []models.Card{}}
		for j, title := range cards {
			col.Cards = append(col.Cards, models.Card{ID: title, ColumnID: col.ID, Title: title, Order: j})
		}
		board.Columns = append(board.Columns, col)
	}
	return board
}
