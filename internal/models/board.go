package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Board is the root of the ownership chain
type Board struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	OwnerID   string    `gorm:"size:191;not null;index" json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Columns   []Column  `gorm:"foreignKey:BoardID" json:"columns"`
}

// Column is an ordered container of cards within a board.
// Order is dense and zero based among the columns of one board.
type Column struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BoardID   string    `gorm:"size:36;not null;index:idx_column_board_order" json:"boardId"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Order     int       `gorm:"column:sort_order;not null;default:0;index:idx_column_board_order" json:"order"`
	Limit     *int      `gorm:"column:card_limit" json:"limit"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Cards     []Card    `gorm:"foreignKey:ColumnID" json:"cards"`
}

// Card is a recipe in progress, the draggable unit.
// Order is dense and zero based among the cards of its current column.
type Card struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	ColumnID     string       `gorm:"size:36;not null;index:idx_card_column_order" json:"columnId"`
	Title        string       `gorm:"size:255;not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	Status       RecipeStatus `gorm:"size:32;not null;default:DORMANT" json:"status"`
	Instructions StringList   `json:"instructions"`
	Labels       StringList   `json:"labels"`
	Order        int          `gorm:"column:sort_order;not null;default:0;index:idx_card_column_order" json:"order"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Ingredients  []Ingredient `gorm:"foreignKey:CardID" json:"ingredients"`
}

// Ingredient belongs to exactly one card. Seq keeps the list order the
// client sent; it is not exposed.
type Ingredient struct {
	ID       string  `gorm:"primaryKey;size:36" json:"id"`
	CardID   string  `gorm:"size:36;not null;index" json:"cardId"`
	Name     string  `gorm:"size:255;not null" json:"name"`
	Quantity float64 `gorm:"not null;default:0" json:"quantity"`
	Unit     Unit    `gorm:"size:16;not null" json:"unit"`
	Seq      int     `gorm:"not null;default:0" json:"-"`
}

// TableName overrides the table name for Board
func (Board) TableName() string {
	return "boards"
}

// TableName overrides the table name for Column; "columns" is reserved in MySQL
func (Column) TableName() string {
	return "board_columns"
}

// TableName overrides the table name for Card
func (Card) TableName() string {
	return "cards"
}

// TableName overrides the table name for Ingredient
func (Ingredient) TableName() string {
	return "ingredients"
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// BeforeCreate assigns a uuid when none is set
func (b *Board) BeforeCreate(*gorm.DB) error {
	newID(&b.ID)
	return nil
}

// BeforeCreate assigns a uuid when none is set
func (c *Column) BeforeCreate(*gorm.DB) error {
	newID(&c.ID)
	return nil
}

// BeforeCreate assigns a uuid and the default status when unset
func (c *Card) BeforeCreate(*gorm.DB) error {
	newID(&c.ID)
	if c.Status == "" {
		c.Status = StatusDormant
	}
	return nil
}

// BeforeCreate assigns a uuid when none is set
func (i *Ingredient) BeforeCreate(*gorm.DB) error {
	newID(&i.ID)
	return nil
}
