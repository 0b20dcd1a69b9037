package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/kanban/internal/models"
)

const cardColumns = `id, title, description, due_date, assignee, estimated_time, archived, "column", position`

type CardRepository struct {
	db *sqlx.DB
}

func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

// CardInput carries a validated card creation request.
type CardInput struct {
	Title         string
	Description   string
	Column        string
	DueDate       *string
	Assignee      *string
	EstimatedTime *int64
	Subtasks      []SubtaskInput
	TagIDs        []string
}

type SubtaskInput struct {
	Text string
	Done bool
}

// CardUpdateInput carries a partial card update. Pointer fields replace the
// value when non-nil; the Set* pairs distinguish "clear to NULL" from "leave
// alone" for the nullable fields.
type CardUpdateInput struct {
	Title            *string
	Description      *string
	DueDate          sql.NullString
	SetDueDate       bool
	Assignee         sql.NullString
	SetAssignee      bool
	EstimatedTime    sql.NullInt64
	SetEstimatedTime bool
	TagIDs           []string
	SetTags          bool
}

type SubtaskUpdateInput struct {
	Text *string
	Done *bool
}

func (r *CardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	var card models.Card
	query := r.db.Rebind(`SELECT ` + cardColumns + ` FROM cards WHERE id = ?`)
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &card, nil
}

// ListActive returns all cards still on the board.
func (r *CardRepository) ListActive(ctx context.Context) ([]models.Card, error) {
	cards := []models.Card{}
	err := r.db.SelectContext(ctx, &cards,
		`SELECT `+cardColumns+` FROM cards WHERE NOT archived`)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *CardRepository) ListArchived(ctx context.Context) ([]models.Card, error) {
	cards := []models.Card{}
	err := r.db.SelectContext(ctx, &cards,
		`SELECT `+cardColumns+` FROM cards WHERE archived`)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Create inserts a card together with its inline subtasks and tag
// associations in one transaction. Tag ids that do not exist are skipped.
func (r *CardRepository) Create(ctx context.Context, in *CardInput) (*models.Card, error) {
	card := &models.Card{
		ID:          models.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Column:      in.Column,
	}
	if in.DueDate != nil {
		card.DueDate = sql.NullString{String: *in.DueDate, Valid: true}
	}
	if in.Assignee != nil {
		card.Assignee = sql.NullString{String: *in.Assignee, Valid: true}
	}
	if in.EstimatedTime != nil {
		card.EstimatedTime = sql.NullInt64{Int64: *in.EstimatedTime, Valid: true}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	insert := r.db.Rebind(`INSERT INTO cards (` + cardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, insert,
		card.ID, card.Title, card.Description, card.DueDate, card.Assignee,
		card.EstimatedTime, card.Archived, card.Column, card.Position)
	if err != nil {
		return nil, fmt.Errorf("insert card: %w", err)
	}

	subInsert := r.db.Rebind(`INSERT INTO subtasks (id, card_id, text, done) VALUES (?, ?, ?, ?)`)
	for _, st := range in.Subtasks {
		if _, err := tx.ExecContext(ctx, subInsert, models.NewID(), card.ID, st.Text, st.Done); err != nil {
			return nil, fmt.Errorf("insert subtask: %w", err)
		}
	}

	if err := attachTags(ctx, tx, card.ID, in.TagIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return card, nil
}

// Update applies a partial update and, when requested, replaces the card's
// tag associations.
func (r *CardRepository) Update(ctx context.Context, id string, in *CardUpdateInput) (*models.Card, error) {
	card, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		card.Title = *in.Title
	}
	if in.Description != nil {
		card.Description = *in.Description
	}
	if in.SetDueDate {
		card.DueDate = in.DueDate
	}
	if in.SetAssignee {
		card.Assignee = in.Assignee
	}
	if in.SetEstimatedTime {
		card.EstimatedTime = in.EstimatedTime
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	update := r.db.Rebind(`UPDATE cards
		SET title = ?, description = ?, due_date = ?, assignee = ?, estimated_time = ?
		WHERE id = ?`)
	_, err = tx.ExecContext(ctx, update,
		card.Title, card.Description, card.DueDate, card.Assignee, card.EstimatedTime, card.ID)
	if err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}

	if in.SetTags {
		if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM card_tags WHERE card_id = ?`), card.ID); err != nil {
			return nil, fmt.Errorf("clear card tags: %w", err)
		}
		if err := attachTags(ctx, tx, card.ID, in.TagIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return card, nil
}

// Move places a card in a column. A nil position keeps the stored one.
func (r *CardRepository) Move(ctx context.Context, id, toColumn string, position *int64) (*models.Card, error) {
	card, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	card.Column = toColumn
	if position != nil {
		card.Position = int(*position)
	}

	query := r.db.Rebind(`UPDATE cards SET "column" = ?, position = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, card.Column, card.Position, card.ID); err != nil {
		return nil, fmt.Errorf("move card: %w", err)
	}
	return card, nil
}

func (r *CardRepository) SetArchived(ctx context.Context, id string, archived bool) (*models.Card, error) {
	card, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	card.Archived = archived
	query := r.db.Rebind(`UPDATE cards SET archived = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, card.Archived, card.ID); err != nil {
		return nil, fmt.Errorf("archive card: %w", err)
	}
	return card, nil
}

// Delete removes a card with its subtasks and tag associations.
func (r *CardRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM subtasks WHERE card_id = ?`), id); err != nil {
		return fmt.Errorf("delete subtasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM card_tags WHERE card_id = ?`), id); err != nil {
		return fmt.Errorf("detach tags: %w", err)
	}

	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM cards WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *CardRepository) SubtasksForCard(ctx context.Context, cardID string) ([]models.Subtask, error) {
	subtasks := []models.Subtask{}
	query := r.db.Rebind(`SELECT id, card_id, text, done FROM subtasks WHERE card_id = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &subtasks, query, cardID); err != nil {
		return nil, err
	}
	return subtasks, nil
}

func (r *CardRepository) TagsForCard(ctx context.Context, cardID string) ([]models.Tag, error) {
	tags := []models.Tag{}
	query := r.db.Rebind(`SELECT t.id, t.name, t.color FROM tags t
		JOIN card_tags ct ON ct.tag_id = t.id
		WHERE ct.card_id = ? ORDER BY t.name`)
	if err := r.db.SelectContext(ctx, &tags, query, cardID); err != nil {
		return nil, err
	}
	return tags, nil
}

// SubtasksByCard fetches every subtask grouped by owning card, so board
// assembly needs a constant number of queries.
func (r *CardRepository) SubtasksByCard(ctx context.Context) (map[string][]models.Subtask, error) {
	subtasks := []models.Subtask{}
	err := r.db.SelectContext(ctx, &subtasks,
		`SELECT id, card_id, text, done FROM subtasks ORDER BY id`)
	if err != nil {
		return nil, err
	}

	byCard := make(map[string][]models.Subtask)
	for _, st := range subtasks {
		byCard[st.CardID] = append(byCard[st.CardID], st)
	}
	return byCard, nil
}

type cardTagRow struct {
	CardID string `db:"card_id"`
	ID     string `db:"id"`
	Name   string `db:"name"`
	Color  string `db:"color"`
}

// TagsByCard fetches every card-tag association grouped by card.
func (r *CardRepository) TagsByCard(ctx context.Context) (map[string][]models.Tag, error) {
	rows := []cardTagRow{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT ct.card_id, t.id, t.name, t.color FROM card_tags ct
		 JOIN tags t ON t.id = ct.tag_id ORDER BY t.name`)
	if err != nil {
		return nil, err
	}

	byCard := make(map[string][]models.Tag)
	for _, row := range rows {
		byCard[row.CardID] = append(byCard[row.CardID], models.Tag{ID: row.ID, Name: row.Name, Color: row.Color})
	}
	return byCard, nil
}

// AddSubtask appends a subtask to an existing card.
func (r *CardRepository) AddSubtask(ctx context.Context, cardID, text string, done bool) (*models.Subtask, error) {
	if _, err := r.GetByID(ctx, cardID); err != nil {
		return nil, err
	}

	subtask := &models.Subtask{ID: models.NewID(), CardID: cardID, Text: text, Done: done}
	query := r.db.Rebind(`INSERT INTO subtasks (id, card_id, text, done) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, subtask.ID, subtask.CardID, subtask.Text, subtask.Done); err != nil {
		return nil, fmt.Errorf("insert subtask: %w", err)
	}
	return subtask, nil
}

// GetSubtask returns the subtask only when it belongs to the given card.
func (r *CardRepository) GetSubtask(ctx context.Context, cardID, subID string) (*models.Subtask, error) {
	var subtask models.Subtask
	query := r.db.Rebind(`SELECT id, card_id, text, done FROM subtasks WHERE id = ? AND card_id = ?`)
	if err := r.db.GetContext(ctx, &subtask, query, subID, cardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &subtask, nil
}

func (r *CardRepository) UpdateSubtask(ctx context.Context, cardID, subID string, in *SubtaskUpdateInput) (*models.Subtask, error) {
	subtask, err := r.GetSubtask(ctx, cardID, subID)
	if err != nil {
		return nil, err
	}

	if in.Text != nil {
		subtask.Text = *in.Text
	}
	if in.Done != nil {
		subtask.Done = *in.Done
	}

	query := r.db.Rebind(`UPDATE subtasks SET text = ?, done = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, subtask.Text, subtask.Done, subtask.ID); err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}
	return subtask, nil
}

func (r *CardRepository) DeleteSubtask(ctx context.Context, cardID, subID string) error {
	query := r.db.Rebind(`DELETE FROM subtasks WHERE id = ? AND card_id = ?`)
	res, err := r.db.ExecContext(ctx, query, subID, cardID)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// attachTags links the card to each existing tag id. Unknown ids are
// skipped and duplicates collapse via the association primary key.
func attachTags(ctx context.Context, tx *sqlx.Tx, cardID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	query := tx.Rebind(`INSERT INTO card_tags (card_id, tag_id)
		SELECT ?, id FROM tags WHERE id = ?
		ON CONFLICT DO NOTHING`)
	for _, tagID := range tagIDs {
		tagID = strings.TrimSpace(tagID)
		if tagID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, cardID, tagID); err != nil {
			return fmt.Errorf("attach tag %s: %w", tagID, err)
		}
	}
	return nil
}
