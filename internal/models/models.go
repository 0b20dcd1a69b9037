package models

import (
	"database/sql"

	"github.com/google/uuid"
)

// Column constants
const (
	ColumnTodo       = "todo"
	ColumnInProgress = "in_progress"
	ColumnDone       = "done"
)

// DefaultTagColor is applied when a tag is created without a color.
const DefaultTagColor = "#3b82f6"

// DueDateLayout is the only accepted due date format.
const DueDateLayout = "2006-01-02"

// ValidColumn reports whether s is one of the three board columns.
func ValidColumn(s string) bool {
	switch s {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	}
	return false
}

// NewID generates a new v4 UUID string used as a primary key.
func NewID() string {
	return uuid.New().String()
}

type User struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type Tag struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Color string `db:"color"`
}

type Card struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	DueDate       sql.NullString `db:"due_date"`
	Assignee      sql.NullString `db:"assignee"`
	EstimatedTime sql.NullInt64  `db:"estimated_time"`
	Archived      bool           `db:"archived"`
	Column        string         `db:"column"`
	Position      int            `db:"position"`
}

type Subtask struct {
	ID     string `db:"id"`
	CardID string `db:"card_id"`
	Text   string `db:"text"`
	Done   bool   `db:"done"`
}
