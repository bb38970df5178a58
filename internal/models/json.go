package models

import (
	"context"
	"database/sql/driver"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// StringList is an ordered list of strings stored as a JSON array column.
// It wraps gorm.io/datatypes.JSONSlice to fix the column type per dialect and
// to treat NULL as an empty list.
type StringList []string

func (l StringList) slice() datatypes.JSONSlice[string] {
	if l == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](l)
}

// Value delegates to datatypes.JSONSlice
func (l StringList) Value() (driver.Value, error) {
	return l.slice().Value()
}

// Scan delegates to datatypes.JSONSlice, NULL scans to an empty list
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var s datatypes.JSONSlice[string]
	if err := s.Scan(value); err != nil {
		return err
	}
	*l = StringList(s)
	if *l == nil {
		*l = StringList{}
	}
	return nil
}

// GormValue casts to JSON on MySQL, like datatypes.JSONSlice
func (l StringList) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return l.slice().GormValue(ctx, db)
}

// GormDataType gorm common data type
func (StringList) GormDataType() string {
	return "json"
}

// GormDBDataType ensures the correct data type is used for each database driver.
// MSSQL has no json type.
func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

// MarshalJSON renders a nil list as [] so clients never see null.
func (l StringList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(l.slice()))
}
