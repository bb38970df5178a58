package models

import (
	"fmt"
	"strings"
)

// RecipeStatus is the stocking state of a recipe card.
type RecipeStatus string

const (
	StatusDormant      RecipeStatus = "DORMANT"
	StatusFullyStocked RecipeStatus = "FULLY_STOCKED"
	StatusLowStock     RecipeStatus = "LOW_STOCK"
	StatusOutOfStock   RecipeStatus = "OUT_OF_STOCK"
)

// RecipeStatuses lists the canonical statuses in display order.
var RecipeStatuses = []RecipeStatus{StatusDormant, StatusFullyStocked, StatusLowStock, StatusOutOfStock}

// legacyStatuses maps values written by earlier revisions onto the canonical set.
var legacyStatuses = map[string]RecipeStatus{
	"ACTIVE": StatusFullyStocked,
	"DRAFT":  StatusDormant,
}

// LegacyStatusValues returns the raw stored values, in both cases, that
// earlier revisions wrote and that must be rewritten to the canonical set.
func LegacyStatusValues() map[string]RecipeStatus {
	out := make(map[string]RecipeStatus, 2*len(legacyStatuses))
	for raw, st := range legacyStatuses {
		out[raw] = st
		out[strings.ToLower(raw)] = st
	}
	return out
}

// ParseRecipeStatus accepts any case and the legacy ACTIVE/DRAFT values.
func ParseRecipeStatus(s string) (RecipeStatus, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for _, st := range RecipeStatuses {
		if string(st) == v {
			return st, nil
		}
	}
	if st, ok := legacyStatuses[v]; ok {
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Unit is the measure an ingredient quantity is expressed in.
type Unit string

const (
	UnitGram       Unit = "G"
	UnitKilogram   Unit = "KG"
	UnitMilliliter Unit = "ML"
	UnitLiter      Unit = "L"
	UnitTeaspoon   Unit = "TSP"
	UnitTablespoon Unit = "TBSP"
	UnitCup        Unit = "CUP"
	UnitPiece      Unit = "PIECE"
	UnitPinch      Unit = "PINCH"
)

// Units lists every valid unit.
var Units = []Unit{
	UnitGram, UnitKilogram, UnitMilliliter, UnitLiter,
	UnitTeaspoon, UnitTablespoon, UnitCup, UnitPiece, UnitPinch,
}

// ParseUnit accepts any case.
func ParseUnit(s string) (Unit, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for _, u := range Units {
		if string(u) == v {
			return u, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", s)
}
