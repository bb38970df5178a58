// store.go
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

package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/ordering"
)

// BoardAPI is the part of the service the Store needs. *API implements it.
type BoardAPI interface {
	GetBoards(ctx context.Context) ([]models.Board, error)
	ReorderColumns(ctx context.Context, boardID string, entries []ColumnOrder) error
	MoveCards(ctx context.Context, columnID string, entries []CardOrder) error
	CreateColumn(ctx context.Context, in NewColumn) (*models.Column, error)
	UpdateColumn(ctx context.Context, columnID string, patch ColumnPatch) (*models.Column, error)
	DeleteColumn(ctx context.Context, columnID string) error
	CreateCard(ctx context.Context, in NewCard) (*models.Card, error)
	UpdateCard(ctx context.Context, cardID string, patch CardPatch) (*models.Card, error)
	DeleteCard(ctx context.Context, cardID string) error
}

// State is a snapshot of the mirrored board
type State struct {
	BoardID   string
	Title     string
	Columns   []models.Column
	IsLoading bool
	// Err is the last failure, for display. A successful Load clears it.
	Err error
	// Stale is set when the mirror could not be reconciled with the
	// service; the next mutation fetches the board before applying.
	Stale bool
}

// Column returns the column with id, or nil
func (st State) Column(id string) *models.Column {
	for i := range st.Columns {
		if st.Columns[i].ID == id {
			return &st.Columns[i]
		}
	}
	return nil
}

func (st State) clone() State {
	out := st
	out.Columns = make([]models.Column, len(st.Columns))
	for i, col := range st.Columns {
		col.Limit = clonePtr(col.Limit)
		cards := make([]models.Card, len(col.Cards))
		for j, card := range col.Cards {
			card.Instructions = slices.Clone(card.Instructions)
			card.Labels = slices.Clone(card.Labels)
			card.Ingredients = slices.Clone(card.Ingredients)
			cards[j] = card
		}
		col.Cards = cards
		out.Columns[i] = col
	}
	return out
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (st *State) findColumn(id string) int {
	return slices.IndexFunc(st.Columns, func(c models.Column) bool { return c.ID == id })
}

func (st *State) findCard(id string) (col, at int) {
	for ci := range st.Columns {
		if at := slices.IndexFunc(st.Columns[ci].Cards, func(c models.Card) bool { return c.ID == id }); at >= 0 {
			return ci, at
		}
	}
	return -1, -1
}

func (st *State) renumberColumns() {
	for i := range st.Columns {
		st.Columns[i].Order = i
	}
}

func (st *State) renumberCards(ci int) {
	col := &st.Columns[ci]
	for i := range col.Cards {
		col.Cards[i].Order = i
		col.Cards[i].ColumnID = col.ID
	}
}

// errNoChange aborts an update that leaves the state as it is
var errNoChange = errors.New("no change")

// Store mirrors one board in memory. Mutations are applied locally first,
// then sent; a rejected mutation is reconciled by fetching the board again.
type Store struct {
	api     BoardAPI
	boardID string

	mu        sync.Mutex
	state     State
	version   uint64
	loading   int
	listeners []func(State)
}

// NewStore creates an empty store. boardID selects the mirrored board; when
// empty the first board of the session is used.
func NewStore(api BoardAPI, boardID string) *Store {
	return &Store{api: api, boardID: boardID}
}

// OnChange registers fn to receive a snapshot after every change
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State returns a deep copy of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// update applies fn under the lock. Unless fn fails the version is bumped
// and listeners are notified once the lock is released.
func (s *Store) update(fn func(st *State) error) error {
	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	s.version++
	snapshot := s.state.clone()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return nil
}

// Reset clears the mirror, e.g. on sign out. Fetches in flight are discarded.
func (s *Store) Reset() {
	_ = s.update(func(st *State) error {
		*st = State{IsLoading: s.loading > 0}
		return nil
	})
}

// Load fetches the board and replaces the mirror with it
func (s *Store) Load(ctx context.Context) error {
	_, err := s.fetch(ctx)
	return err
}

// fetch reports whether its result was applied. A result is dropped when
// anything changed the store after the request was sent.
func (s *Store) fetch(ctx context.Context) (bool, error) {
	var started uint64
	_ = s.update(func(st *State) error {
		s.loading++
		st.IsLoading = true
		started = s.version + 1
		return nil
	})

	boards, err := s.api.GetBoards(ctx)

	applied := false
	_ = s.update(func(st *State) error {
		s.loading--
		st.IsLoading = s.loading > 0
		if s.version != started {
			return nil
		}
		applied = true
		if err != nil {
			st.Err = err
			st.Stale = true
			return nil
		}
		s.apply(st, boards)
		return nil
	})
	if err != nil {
		log.Printf("client: load board failed (%s): %v", Kind(err), err)
	}
	return applied, err
}

func (s *Store) apply(st *State, boards []models.Board) {
	at := 0
	if s.boardID != "" {
		at = slices.IndexFunc(boards, func(b models.Board) bool { return b.ID == s.boardID })
	}
	loading := st.IsLoading
	if at < 0 || len(boards) == 0 {
		*st = State{IsLoading: loading}
		if s.boardID != "" {
			st.Err = fmt.Errorf("board %s: %w", s.boardID, ErrNotFound)
		}
		return
	}

	board := boards[at]
	columns := ordering.Sorted(board.Columns, func(c models.Column) int { return c.Order })
	*st = State{BoardID: board.ID, Title: board.Title, Columns: columns, IsLoading: loading}
	st.renumberColumns()
	for i := range st.Columns {
		st.Columns[i].Cards = ordering.Sorted(st.Columns[i].Cards, func(c models.Card) int { return c.Order })
		st.renumberCards(i)
	}
}

// ensureFresh refetches a stale mirror before a mutation is applied to it
func (s *Store) ensureFresh(ctx context.Context) error {
	s.mu.Lock()
	stale := s.state.Stale
	s.mu.Unlock()
	if !stale {
		return nil
	}
	return s.Load(ctx)
}

// reconcile handles a rejected mutation: the local change is discarded by
// fetching the board again. If that fails too, the store is flagged stale.
func (s *Store) reconcile(ctx context.Context, op string, cause error) error {
	log.Printf("client: %s failed (%s): %v", op, Kind(cause), cause)

	applied, err := s.fetch(context.WithoutCancel(ctx))
	_ = s.update(func(st *State) error {
		st.Err = cause
		if err != nil || !applied {
			st.Stale = true
		}
		return nil
	})
	return cause
}

func (s *Store) fail(op string, err error) error {
	log.Printf("client: %s failed (%s): %v", op, Kind(err), err)
	_ = s.update(func(st *State) error {
		st.Err = err
		return nil
	})
	return err
}

// MoveCard moves a card to index to of column toColumnID, which may be its
// own column. The destination column's full order is sent.
func (s *Store) MoveCard(ctx context.Context, cardID, toColumnID string, to int) error {
	if err := s.ensureFresh(ctx); err != nil {
		return err
	}

	var entries []CardOrder
	err := s.update(func(st *State) error {
		ci, from := st.findCard(cardID)
		if ci < 0 {
			return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
		}
		di := st.findColumn(toColumnID)
		if di < 0 {
			return fmt.Errorf("column %s: %w", toColumnID, ErrNotFound)
		}

		if ci == di {
			out, moved, err := ordering.Move(st.Columns[ci].Cards, from, to)
			if err != nil {
				return err
			}
			if !moved {
				return errNoChange
			}
			st.Columns[ci].Cards = out
		} else {
			src, dst, err := ordering.Transfer(st.Columns[ci].Cards, st.Columns[di].Cards, from, to)
			if err != nil {
				return err
			}
			st.Columns[ci].Cards, st.Columns[di].Cards = src, dst
			st.renumberCards(ci)
		}
		st.renumberCards(di)

		for _, card := range st.Columns[di].Cards {
			entries = append(entries, CardOrder{ID: card.ID, Order: card.Order, ColumnID: toColumnID})
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.api.MoveCards(ctx, toColumnID, entries); err != nil {
		return s.reconcile(ctx, "move card "+cardID, err)
	}
	return nil
}

// MoveColumn moves a column to index to and sends the board's full column order
func (s *Store) MoveColumn(ctx context.Context, columnID string, to int) error {
	if err := s.ensureFresh(ctx); err != nil {
		return err
	}

	var (
		boardID string
		entries []ColumnOrder
	)
	err := s.update(func(st *State) error {
		from := st.findColumn(columnID)
		if from < 0 {
			return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
		}
		out, moved, err := ordering.Move(st.Columns, from, to)
		if err != nil {
			return err
		}
		if !moved {
			return errNoChange
		}
		st.Columns = out
		st.renumberColumns()

		boardID = st.BoardID
		for _, col := range st.Columns {
			entries = append(entries, ColumnOrder{ID: col.ID, Order: col.Order})
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.api.ReorderColumns(ctx, boardID, entries); err != nil {
		return s.reconcile(ctx, "move column "+columnID, err)
	}
	return nil
}

// AddColumn creates a column on the mirrored board. The column appears
// once the service has assigned its id.
func (s *Store) AddColumn(ctx context.Context, in NewColumn) (*models.Column, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	if in.BoardID == "" {
		in.BoardID = s.State().BoardID
	}
	if in.BoardID == "" {
		return nil, fmt.Errorf("no board loaded: %w", ErrNotFound)
	}

	col, err := s.api.CreateColumn(ctx, in)
	if err != nil {
		return nil, s.fail("add column", err)
	}
	if col.Cards == nil {
		col.Cards = []models.Card{}
	}

	_ = s.update(func(st *State) error {
		if st.BoardID != col.BoardID || st.findColumn(col.ID) >= 0 {
			return errNoChange
		}
		st.Columns = ordering.Insert(st.Columns, *col, col.Order)
		st.renumberColumns()
		return nil
	})
	return col, nil
}

// RenameColumn changes a column title
func (s *Store) RenameColumn(ctx context.Context, columnID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("column title is required: %w", ErrValidation)
	}
	if err := s.ensureFresh(ctx); err != nil {
		return err
	}

	err := s.update(func(st *State) error {
		at := st.findColumn(columnID)
		if at < 0 {
			return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
		}
		if st.Columns[at].Title == title {
			return errNoChange
		}
		st.Columns[at].Title = title
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.api.UpdateColumn(ctx, columnID, ColumnPatch{Title: &title}); err != nil {
		return s.reconcile(ctx, "rename column "+columnID, err)
	}
	return nil
}

// DeleteColumn removes a column and its cards
func (s *Store) DeleteColumn(ctx context.Context, columnID string) error {
	if err := s.ensureFresh(ctx); err != nil {
		return err
	}

	err := s.update(func(st *State) error {
		at := st.findColumn(columnID)
		if at < 0 {
			return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
		}
		out, _, err := ordering.Remove(st.Columns, at)
		if err != nil {
			return err
		}
		st.Columns = out
		st.renumberColumns()
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.api.DeleteColumn(ctx, columnID); err != nil {
		return s.reconcile(ctx, "delete column "+columnID, err)
	}
	return nil
}

// AddCard creates a card. It appears once the service has assigned its id.
func (s *Store) AddCard(ctx context.Context, in NewCard) (*models.Card, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	card, err := s.api.CreateCard(ctx, in)
	if err != nil {
		return nil, s.fail("add card", err)
	}

	_ = s.update(func(st *State) error {
		di := st.findColumn(card.ColumnID)
		if di < 0 {
			return errNoChange
		}
		if ci, _ := st.findCard(card.ID); ci >= 0 {
			return errNoChange
		}
		st.Columns[di].Cards = ordering.Insert(st.Columns[di].Cards, *card, card.Order)
		st.renumberCards(di)
		return nil
	})
	return card, nil
}

// UpdateCard applies a partial update. The mirror takes the service's copy
// of the card, including its new position when the patch moves it.
func (s *Store) UpdateCard(ctx context.Context, cardID string, patch CardPatch) (*models.Card, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	card, err := s.api.UpdateCard(ctx, cardID, patch)
	if err != nil {
		return nil, s.fail("update card "+cardID, err)
	}

	err = s.update(func(st *State) error {
		ci, at := st.findCard(card.ID)
		di := st.findColumn(card.ColumnID)
		if ci < 0 || di < 0 {
			return errNoChange
		}
		src, _, err := ordering.Remove(st.Columns[ci].Cards, at)
		if err != nil {
			return err
		}
		st.Columns[ci].Cards = src
		st.Columns[di].Cards = ordering.Insert(st.Columns[di].Cards, *card, card.Order)
		st.renumberCards(ci)
		st.renumberCards(di)
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return card, err
	}
	return card, nil
}

// DeleteCard removes a card
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	if err := s.ensureFresh(ctx); err != nil {
		return err
	}

	err := s.update(func(st *State) error {
		ci, at := st.findCard(cardID)
		if ci < 0 {
			return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
		}
		out, _, err := ordering.Remove(st.Columns[ci].Cards, at)
		if err != nil {
			return err
		}
		st.Columns[ci].Cards = out
		st.renumberCards(ci)
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.api.DeleteCard(ctx, cardID); err != nil {
		return s.reconcile(ctx, "delete card "+cardID, err)
	}
	return nil
}
