package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schema holds the full DDL. Every statement is idempotent so Migrate can
// run at each startup. "column" is quoted because it is a reserved word in
// both sqlite and postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL DEFAULT '#3b82f6'
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date TEXT,
		assignee TEXT,
		estimated_time INTEGER,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		"column" TEXT NOT NULL DEFAULT 'todo',
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS subtasks (
		id TEXT PRIMARY KEY,
		card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		done BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS card_tags (
		card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
		tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (card_id, tag_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subtasks_card_id ON subtasks(card_id)`,
	`CREATE INDEX IF NOT EXISTS idx_card_tags_tag_id ON card_tags(tag_id)`,
}

// Migrate applies the schema to the database.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			name := strings.Fields(stmt)[0]
			return fmt.Errorf("apply schema statement (%s...): %w", name, err)
		}
	}
	return nil
}
