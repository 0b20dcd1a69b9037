package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/kanban/internal/models"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT id, name FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, name string) (*models.User, error) {
	user := &models.User{ID: models.NewID(), Name: name}
	query := r.db.Rebind(`INSERT INTO users (id, name) VALUES (?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Name); err != nil {
		return nil, err
	}
	return user, nil
}
