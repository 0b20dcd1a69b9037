package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/kanban/internal/models"
)

type TagRepository struct {
	db *sqlx.DB
}

func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// TagUpdateInput carries a partial tag update. Nil fields are left
// untouched.
type TagUpdateInput struct {
	Name  *string
	Color *string
}

func (r *TagRepository) List(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := r.db.SelectContext(ctx, &tags, `SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	var tag models.Tag
	query := r.db.Rebind(`SELECT id, name, color FROM tags WHERE id = ?`)
	if err := r.db.GetContext(ctx, &tag, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// GetByName looks a tag up by exact, case-sensitive name.
func (r *TagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	query := r.db.Rebind(`SELECT id, name, color FROM tags WHERE name = ?`)
	if err := r.db.GetContext(ctx, &tag, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (r *TagRepository) Create(ctx context.Context, name, color string) (*models.Tag, error) {
	tag := &models.Tag{ID: models.NewID(), Name: name, Color: color}
	query := r.db.Rebind(`INSERT INTO tags (id, name, color) VALUES (?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, tag.ID, tag.Name, tag.Color); err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return tag, nil
}

func (r *TagRepository) Update(ctx context.Context, id string, in *TagUpdateInput) (*models.Tag, error) {
	tag, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		tag.Name = *in.Name
	}
	if in.Color != nil {
		tag.Color = *in.Color
	}

	query := r.db.Rebind(`UPDATE tags SET name = ?, color = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, tag.Name, tag.Color, tag.ID); err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

// Delete removes a tag, detaching it from every card first.
func (r *TagRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM tags WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	// The card_tags FK cascades on tag delete, but the detach is part of
	// the contract; keep it explicit so it holds without FK enforcement.
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM card_tags WHERE tag_id = ?`), id); err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}

	return tx.Commit()
}
