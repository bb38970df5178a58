package models

import (
	"time"
)

// User mirrors the identity provider's profile of a board owner.
// ID is the provider's subject, not generated here.
type User struct {
	ID        string    `gorm:"primaryKey;size:191" json:"id"`
	Email     string    `gorm:"size:255" json:"email"`
	FirstName *string   `gorm:"size:255" json:"firstName"`
	LastName  *string   `gorm:"size:255" json:"lastName"`
	ImageURL  *string   `gorm:"size:1024" json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Board{}, &Column{}, &Card{}, &Ingredient{}}
}
