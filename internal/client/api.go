// Package client talks to the board service and keeps an optimistic local
// mirror of one board for interactive front ends.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/localnerve/recipe-board/internal/models"
)

// Failure kinds. Every error returned by API wraps exactly one of them.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal server error")
	ErrNetwork         = errors.New("network error")
	ErrRequestTimedOut = errors.New("request timed out")
)

// DefaultTimeout bounds a request when API.Timeout is zero
const DefaultTimeout = 10 * time.Second

// Error is a failed request
type Error struct {
	Kind    error
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v: %s", e.Method, e.Path, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %v: %s", e.Method, e.Path, e.Status, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

// Kind names the failure kind of err for logs
func Kind(err error) string {
	for _, k := range []struct {
		err  error
		name string
	}{
		{ErrUnauthenticated, "unauthenticated"},
		{ErrNotFound, "not_found"},
		{ErrValidation, "validation"},
		{ErrConflict, "conflict"},
		{ErrInternal, "internal"},
		{ErrRequestTimedOut, "timeout"},
		{ErrNetwork, "network"},
	} {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}

// ColumnOrder is one entry of a column reorder
type ColumnOrder struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// CardOrder is one entry of a card move
type CardOrder struct {
	ID       string `json:"id"`
	Order    int    `json:"order"`
	ColumnID string `json:"columnId"`
}

// NewColumn is the payload of CreateColumn
type NewColumn struct {
	Title   string `json:"title"`
	BoardID string `json:"boardId"`
	Order   *int   `json:"order,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

// ColumnPatch holds the column fields to change
type ColumnPatch struct {
	Title *string `json:"title,omitempty"`
	Limit *int    `json:"limit,omitempty"`
}

// Ingredient is an ingredient in a card payload
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// NewCard is the payload of CreateCard
type NewCard struct {
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	ColumnID     string       `json:"columnId"`
	Order        *int         `json:"order,omitempty"`
	Status       string       `json:"status,omitempty"`
	Instructions []string     `json:"instructions,omitempty"`
	Labels       []string     `json:"labels,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
}

// CardPatch holds the card fields to change. Instructions and Ingredients
// replace the stored lists when set.
type CardPatch struct {
	Title        *string       `json:"title,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Status       *string       `json:"status,omitempty"`
	Instructions *[]string     `json:"instructions,omitempty"`
	Labels       *[]string     `json:"labels,omitempty"`
	Ingredients  *[]Ingredient `json:"ingredients,omitempty"`
	ColumnID     *string       `json:"columnId,omitempty"`
	Order        *int          `json:"order,omitempty"`
}

// Moves reports whether the patch changes the card's position
func (p CardPatch) Moves() bool {
	return p.ColumnID != nil || p.Order != nil
}

// API is an HTTP client for the board service
type API struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  *TokenManager
	// Timeout bounds each request, DefaultTimeout when zero
	Timeout time.Duration
}

// NewAPI creates a client for the service at baseURL, e.g. http://localhost:3001
func NewAPI(baseURL string, tokens *TokenManager, timeout time.Duration) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Tokens:  tokens,
		Timeout: timeout,
	}
}

type envelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func kindFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status >= 400 && status < 500:
		return ErrValidation
	}
	return ErrInternal
}

// do sends one request with a bearer token. A 401 triggers exactly one
// token refresh and retry; a second 401 clears the session.
func (a *API) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	token, err := a.Tokens.Token(ctx)
	if err != nil {
		return &Error{Kind: ErrUnauthenticated, Method: method, Path: path, Message: err.Error()}
	}

	status, raw, err := a.send(ctx, method, path, token, body)
	if err == nil && status == http.StatusUnauthorized {
		if token, err = a.Tokens.Refresh(ctx); err != nil {
			a.Tokens.Clear()
			return &Error{Kind: ErrUnauthenticated, Status: status, Method: method, Path: path, Message: err.Error()}
		}
		status, raw, err = a.send(ctx, method, path, token, body)
		if err == nil && status == http.StatusUnauthorized {
			a.Tokens.Clear()
		}
	}
	if err != nil {
		return err
	}

	if status >= 400 {
		var env envelope
		message := http.StatusText(status)
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			message = env.Message
		}
		return &Error{Kind: kindFor(status), Status: status, Method: method, Path: path, Message: message}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Kind: ErrInternal, Status: status, Method: method, Path: path, Message: "malformed response: " + err.Error()}
		}
	}
	return nil
}

func (a *API) send(ctx context.Context, method, path, token string, body []byte) (int, []byte, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+"/api"+path, reader)
	if err != nil {
		return 0, nil, &Error{Kind: ErrNetwork, Method: method, Path: path, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Api-Version", "1.0.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.HTTP.Do(req)
	if err == nil {
		defer resp.Body.Close()
		var raw []byte
		if raw, err = io.ReadAll(resp.Body); err == nil {
			return resp.StatusCode, raw, nil
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return 0, nil, &Error{Kind: ErrRequestTimedOut, Method: method, Path: path, Message: fmt.Sprintf("no response within %s", timeout)}
	}
	return 0, nil, &Error{Kind: ErrNetwork, Method: method, Path: path, Message: err.Error()}
}

func escape(id string) string { return url.PathEscape(id) }

// GetBoards lists the caller's boards, fully nested
func (a *API) GetBoards(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	if err := a.do(ctx, http.MethodGet, "/boards", nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// CreateBoard creates an empty board
func (a *API) CreateBoard(ctx context.Context, title string) (*models.Board, error) {
	var board models.Board
	if err := a.do(ctx, http.MethodPost, "/boards", map[string]string{"title": title}, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// UpdateBoard renames a board
func (a *API) UpdateBoard(ctx context.Context, boardID, title string) (*models.Board, error) {
	var board models.Board
	if err := a.do(ctx, http.MethodPut, "/boards/"+escape(boardID), map[string]string{"title": title}, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// DeleteBoard deletes a board and everything on it
func (a *API) DeleteBoard(ctx context.Context, boardID string) error {
	return a.do(ctx, http.MethodDelete, "/boards/"+escape(boardID), nil, nil)
}

// ReorderColumns sends a column order batch for a board
func (a *API) ReorderColumns(ctx context.Context, boardID string, entries []ColumnOrder) error {
	return a.do(ctx, http.MethodPut, "/boards/"+escape(boardID)+"/columns", map[string]interface{}{"columns": entries}, nil)
}

// ReorderColumnsAt sends a column order batch addressed through a column
func (a *API) ReorderColumnsAt(ctx context.Context, columnID, boardID string, entries []ColumnOrder) error {
	payload := map[string]interface{}{"boardId": boardID, "columns": entries}
	return a.do(ctx, http.MethodPut, "/columns/"+escape(columnID)+"/reorder", payload, nil)
}

// MoveCards sends a card order batch to a destination column
func (a *API) MoveCards(ctx context.Context, columnID string, entries []CardOrder) error {
	return a.do(ctx, http.MethodPut, "/columns/"+escape(columnID)+"/cards", map[string]interface{}{"cards": entries}, nil)
}

// CreateColumn creates a column
func (a *API) CreateColumn(ctx context.Context, in NewColumn) (*models.Column, error) {
	var col models.Column
	if err := a.do(ctx, http.MethodPost, "/columns", in, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// UpdateColumn changes a column's title or limit
func (a *API) UpdateColumn(ctx context.Context, columnID string, patch ColumnPatch) (*models.Column, error) {
	var col models.Column
	if err := a.do(ctx, http.MethodPut, "/columns/"+escape(columnID), patch, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// DeleteColumn deletes a column and its cards
func (a *API) DeleteColumn(ctx context.Context, columnID string) error {
	return a.do(ctx, http.MethodDelete, "/columns/"+escape(columnID), nil, nil)
}

// CreateCard creates a card with its ingredients
func (a *API) CreateCard(ctx context.Context, in NewCard) (*models.Card, error) {
	if in.Ingredients == nil {
		in.Ingredients = []Ingredient{}
	}
	var card models.Card
	if err := a.do(ctx, http.MethodPost, "/cards", in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard applies a partial card update
func (a *API) UpdateCard(ctx context.Context, cardID string, patch CardPatch) (*models.Card, error) {
	var card models.Card
	if err := a.do(ctx, http.MethodPut, "/cards/"+escape(cardID), patch, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard deletes a card
func (a *API) DeleteCard(ctx context.Context, cardID string) error {
	return a.do(ctx, http.MethodDelete, "/cards/"+escape(cardID), nil, nil)
}

// AddIngredient appends an ingredient to a card
func (a *API) AddIngredient(ctx context.Context, cardID string, in Ingredient) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := a.do(ctx, http.MethodPost, "/cards/"+escape(cardID)+"/ingredients", in, &ing); err != nil {
		return nil, err
	}
	return &ing, nil
}

// DeleteIngredient deletes an ingredient
func (a *API) DeleteIngredient(ctx context.Context, ingredientID string) error {
	return a.do(ctx, http.MethodDelete, "/ingredients/"+escape(ingredientID), nil, nil)
}
