package services

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	defaultPerPage = 15
	maxPerPage     = 100
)

// applySort orders the query by sortBy when the field is in the allow-list.
// Unrecognized fields leave the query unordered. Any order other than "asc"
// sorts descending.
func applySort(db *gorm.DB, sortBy, sortOrder string, allowed map[string]bool) *gorm.DB {
	if sortBy == "" {
		sortBy = "created_at"
	}
	if !allowed[sortBy] {
		return db
	}
	order := "desc"
	if sortOrder == "asc" {
		order = "asc"
	}
	return db.Order(fmt.Sprintf("%s %s", sortBy, order))
}

// normalizePage clamps pagination input: page floors at 1, per-page falls
// back to the default when not positive and caps at 100.
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
