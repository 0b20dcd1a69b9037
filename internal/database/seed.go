package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/kanban/internal/models"
)

type seedTag struct {
	name  string
	color string
}

type seedCard struct {
	title       string
	description string
	column      string
}

var (
	seedUsers = []string{"Alice", "Bob"}

	seedTags = []seedTag{
		{"Bug", "#fca5a5"},
		{"Feature", "#86efac"},
		{"Urgent", "#fde68a"},
		{"Review", "#c4b5fd"},
	}

	seedCards = []seedCard{
		{"Set up project", "Initialize repo and basic structure", models.ColumnTodo},
		{"Design board", "Decide on columns and card data", models.ColumnTodo},
		{"Implement backend", "Create app and APIs", models.ColumnInProgress},
		{"Gather requirements", "Confirm basic features", models.ColumnDone},
	}
)

// Seed inserts starter users, tags and cards. Each table is only populated
// when it is empty, so reseeding an existing database is a no-op.
func Seed(ctx context.Context, db *sqlx.DB) error {
	var count int

	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		stmt := db.Rebind(`INSERT INTO users (id, name) VALUES (?, ?)`)
		for _, name := range seedUsers {
			if _, err := db.ExecContext(ctx, stmt, models.NewID(), name); err != nil {
				return fmt.Errorf("seed user %q: %w", name, err)
			}
		}
	}

	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tags`); err != nil {
		return fmt.Errorf("count tags: %w", err)
	}
	if count == 0 {
		stmt := db.Rebind(`INSERT INTO tags (id, name, color) VALUES (?, ?, ?)`)
		for _, t := range seedTags {
			if _, err := db.ExecContext(ctx, stmt, models.NewID(), t.name, t.color); err != nil {
				return fmt.Errorf("seed tag %q: %w", t.name, err)
			}
		}
	}

	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM cards`); err != nil {
		return fmt.Errorf("count cards: %w", err)
	}
	if count == 0 {
		stmt := db.Rebind(`INSERT INTO cards (id, title, description, "column") VALUES (?, ?, ?, ?)`)
		for _, c := range seedCards {
			if _, err := db.ExecContext(ctx, stmt, models.NewID(), c.title, c.description, c.column); err != nil {
				return fmt.Errorf("seed card %q: %w", c.title, err)
			}
		}
	}

	return nil
}
