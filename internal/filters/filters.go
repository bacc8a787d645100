// Package filters provides a composable predicate registry for task listing
// queries. Each filter narrows a query when its value is usable and is a
// silent no-op otherwise; unrecognized keys are skipped without error.
package filters

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"taskflow/backend/internal/models"
)

type Filter func(db *gorm.DB, value string) *gorm.DB

type Chain struct {
	strategies map[string]Filter
}

// NewTaskChain returns a chain with the built-in task filters registered:
// status, due_date, search and overdue.
func NewTaskChain() *Chain {
	c := &Chain{strategies: make(map[string]Filter)}
	c.Register("status", StatusFilter)
	c.Register("due_date", DueDateFilter)
	c.Register("search", SearchFilter)
	c.Register("overdue", OverdueFilter)
	return c
}

// Register adds or replaces a filter under the given key.
func (c *Chain) Register(key string, f Filter) {
	c.strategies[key] = f
}

// Apply runs the filters named by keys, in that order, against db. Keys with
// no registered filter or an empty value are skipped.
func (c *Chain) Apply(db *gorm.DB, values map[string]string, keys []string) *gorm.DB {
	for _, key := range keys {
		f, ok := c.strategies[key]
		if !ok {
			continue
		}
		value := values[key]
		if value == "" {
			continue
		}
		db = f(db, value)
	}
	return db
}

// StatusFilter matches tasks with the exact status. Values outside the
// allowed status set leave the query untouched.
func StatusFilter(db *gorm.DB, value string) *gorm.DB {
	if !models.IsValidTaskStatus(value) {
		return db
	}
	return db.Where("status = ?", value)
}

// DueDateFilter matches tasks due on the given calendar day. Unparseable
// values leave the query untouched.
func DueDateFilter(db *gorm.DB, value string) *gorm.DB {
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return db
	}
	return db.Where("due_date >= ? AND due_date < ?", day, day.AddDate(0, 0, 1))
}

// SearchFilter matches tasks whose title or description contains the value,
// case-insensitively.
func SearchFilter(db *gorm.DB, value string) *gorm.DB {
	pattern := "%" + strings.ToLower(value) + "%"
	return db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
}

// OverdueFilter restricts the query to overdue tasks when the value is
// truthy ("true" or "1"); any other value is a no-op.
func OverdueFilter(db *gorm.DB, value string) *gorm.DB {
	if value != "true" && value != "1" {
		return db
	}
	return db.Where("due_date < ? AND status != ?", time.Now(), models.TaskStatusDone)
}
