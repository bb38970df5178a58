package data

import (
	_ "embed"

	"github.com/goccy/go-json"
)

//go:embed default_board.json
var defaultBoardJSON []byte

// ColumnTemplate is one column of a provisioned board
type ColumnTemplate struct {
	Title string `json:"title"`
	Limit *int   `json:"limit"`
}

// BoardTemplate is the board created for a user who has none
type BoardTemplate struct {
	Title   string           `json:"title"`
	Columns []ColumnTemplate `json:"columns"`
}

// DefaultBoard parses the embedded default board template
func DefaultBoard() (BoardTemplate, error) {
	var tmpl BoardTemplate
	err := json.Unmarshal(defaultBoardJSON, &tmpl)
	return tmpl, err
}
