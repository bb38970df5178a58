package main

import (
	"fmt"
	"log"

	"github.com/localnerve/recipe-board/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sqliteObject struct {
	Type string
	Name string
	SQL  *string `gorm:"column:sql"`
}

func main() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	// Migrate exactly as the server does to see what GORM creates
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var objects []sqliteObject
	err = db.Raw("SELECT type, name, sql FROM sqlite_master WHERE type IN ('table', 'index') AND name NOT LIKE 'sqlite_%' ORDER BY tbl_name, type DESC, name").
		Scan(&objects).Error
	if err != nil {
		log.Fatal(err)
	}

	for _, obj := range objects {
		fmt.Printf("\n=== %s: %s ===\n", obj.Type, obj.Name)
		if obj.SQL != nil {
			fmt.Println(*obj.SQL)
		}
	}
}
