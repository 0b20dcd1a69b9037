package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gurkanbulca/kanban/internal/events"
	"github.com/gurkanbulca/kanban/internal/models"
	"github.com/gurkanbulca/kanban/internal/repository"
)

// CardService implements every card and subtask mutation: validate, apply
// one atomic change, then broadcast the fresh board to observers.
type CardService struct {
	cards  *repository.CardRepository
	board  *BoardService
	hub    *events.Hub
	logger *log.Logger
}

func NewCardService(cards *repository.CardRepository, board *BoardService, hub *events.Hub, logger *log.Logger) *CardService {
	return &CardService{cards: cards, board: board, hub: hub, logger: logger}
}

type CreateCardRequest struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Column        string           `json:"column"`
	DueDate       string           `json:"dueDate"`
	Assignee      string           `json:"assignee"`
	EstimatedTime *int64           `json:"estimatedTime"`
	Subtasks      []SubtaskRequest `json:"subtasks"`
	TagIDs        []string         `json:"tagIds"`
}

type SubtaskRequest struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type MoveCardRequest struct {
	ToColumn string `json:"toColumn"`
	Position *int64 `json:"position"`
}

// MoveResult echoes the transition alongside the updated card. Position
// reflects the request value, not a renormalized one.
type MoveResult struct {
	Card       models.CardJSON `json:"card"`
	FromColumn string          `json:"fromColumn"`
	ToColumn   string          `json:"toColumn"`
	Position   *int64          `json:"position"`
}

// Create validates and persists a new card with optional inline subtasks
// and tag associations. Inline subtasks with blank text are skipped, and
// unknown tag ids are ignored.
func (s *CardService) Create(ctx context.Context, req *CreateCardRequest) (models.CardJSON, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.CardJSON{}, validationf("title is required")
	}

	column := strings.TrimSpace(req.Column)
	if column == "" {
		column = models.ColumnTodo
	}
	if !models.ValidColumn(column) {
		return models.CardJSON{}, validationf("invalid column")
	}

	input := &repository.CardInput{
		Title:         title,
		Description:   strings.TrimSpace(req.Description),
		Column:        column,
		EstimatedTime: req.EstimatedTime,
		TagIDs:        req.TagIDs,
	}

	if req.DueDate != "" {
		if err := validateDueDate(req.DueDate); err != nil {
			return models.CardJSON{}, err
		}
		input.DueDate = &req.DueDate
	}
	if req.Assignee != "" {
		input.Assignee = &req.Assignee
	}

	for _, st := range req.Subtasks {
		text := strings.TrimSpace(st.Text)
		if text == "" {
			continue
		}
		input.Subtasks = append(input.Subtasks, repository.SubtaskInput{Text: text, Done: st.Done})
	}

	card, err := s.cards.Create(ctx, input)
	if err != nil {
		return models.CardJSON{}, err
	}

	s.logger.Debug("card created", "id", card.ID, "column", card.Column)
	s.broadcastBoard(ctx)
	return s.cardJSON(ctx, card)
}

// Update applies a partial card update. The patch distinguishes an absent
// key from an explicit null: null clears dueDate, assignee and
// estimatedTime, while a missing key leaves the field untouched.
func (s *CardService) Update(ctx context.Context, id string, patch map[string]any) (models.CardJSON, error) {
	input := &repository.CardUpdateInput{}

	if raw, ok := patch["title"]; ok {
		title := strings.TrimSpace(stringValue(raw))
		if title == "" {
			return models.CardJSON{}, validationf("title cannot be empty")
		}
		input.Title = &title
	}

	if raw, ok := patch["description"]; ok {
		description := strings.TrimSpace(stringValue(raw))
		input.Description = &description
	}

	if raw, ok := patch["dueDate"]; ok {
		input.SetDueDate = true
		if dueDate := stringValue(raw); dueDate != "" {
			if err := validateDueDate(dueDate); err != nil {
				return models.CardJSON{}, err
			}
			input.DueDate = sql.NullString{String: dueDate, Valid: true}
		}
	}

	if raw, ok := patch["assignee"]; ok {
		input.SetAssignee = true
		if assignee := stringValue(raw); assignee != "" {
			input.Assignee = sql.NullString{String: assignee, Valid: true}
		}
	}

	if raw, ok := patch["estimatedTime"]; ok {
		input.SetEstimatedTime = true
		if minutes, ok := intValue(raw); ok {
			input.EstimatedTime = sql.NullInt64{Int64: minutes, Valid: true}
		}
	}

	if raw, ok := patch["tagIds"]; ok {
		input.SetTags = true
		input.TagIDs = stringSlice(raw)
	}

	card, err := s.cards.Update(ctx, id, input)
	if err != nil {
		return models.CardJSON{}, s.cardError(err)
	}

	s.logger.Debug("card updated", "id", card.ID)
	s.broadcastBoard(ctx)
	return s.cardJSON(ctx, card)
}

// Move places a card into a column; the optional position is stored as-is.
func (s *CardService) Move(ctx context.Context, id string, req *MoveCardRequest) (*MoveResult, error) {
	if !models.ValidColumn(req.ToColumn) {
		return nil, validationf("invalid toColumn")
	}

	current, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, s.cardError(err)
	}
	fromColumn := current.Column

	card, err := s.cards.Move(ctx, id, req.ToColumn, req.Position)
	if err != nil {
		return nil, s.cardError(err)
	}

	s.logger.Debug("card moved", "id", card.ID, "from", fromColumn, "to", req.ToColumn)
	s.broadcastBoard(ctx)

	cardJSON, err := s.cardJSON(ctx, card)
	if err != nil {
		return nil, err
	}
	return &MoveResult{
		Card:       cardJSON,
		FromColumn: fromColumn,
		ToColumn:   req.ToColumn,
		Position:   req.Position,
	}, nil
}

// Archive hides the card from the board; it stays addressable by id.
func (s *CardService) Archive(ctx context.Context, id string) (models.CardJSON, error) {
	return s.setArchived(ctx, id, true)
}

func (s *CardService) Unarchive(ctx context.Context, id string) (models.CardJSON, error) {
	return s.setArchived(ctx, id, false)
}

func (s *CardService) setArchived(ctx context.Context, id string, archived bool) (models.CardJSON, error) {
	card, err := s.cards.SetArchived(ctx, id, archived)
	if err != nil {
		return models.CardJSON{}, s.cardError(err)
	}

	s.logger.Debug("card archived flag set", "id", card.ID, "archived", archived)
	s.broadcastBoard(ctx)
	return s.cardJSON(ctx, card)
}

// Archived lists every archived card.
func (s *CardService) Archived(ctx context.Context) ([]models.CardJSON, error) {
	cards, err := s.cards.ListArchived(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.CardJSON, 0, len(cards))
	for i := range cards {
		cardJSON, err := s.cardJSON(ctx, &cards[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cardJSON)
	}
	return out, nil
}

// AddSubtask appends a subtask to a card. Text is validated before the
// card lookup so a blank payload is a 400 even for unknown cards.
func (s *CardService) AddSubtask(ctx context.Context, cardID string, req *SubtaskRequest) (models.SubtaskJSON, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return models.SubtaskJSON{}, validationf("text is required")
	}

	subtask, err := s.cards.AddSubtask(ctx, cardID, text, req.Done)
	if err != nil {
		return models.SubtaskJSON{}, s.cardError(err)
	}

	s.logger.Debug("subtask added", "card", cardID, "id", subtask.ID)
	s.broadcastBoard(ctx)
	return subtask.JSON(), nil
}

// UpdateSubtask patches text and/or done of a subtask owned by the card.
func (s *CardService) UpdateSubtask(ctx context.Context, cardID, subID string, patch map[string]any) (models.SubtaskJSON, error) {
	if _, err := s.cards.GetByID(ctx, cardID); err != nil {
		return models.SubtaskJSON{}, s.cardError(err)
	}

	input := &repository.SubtaskUpdateInput{}
	if raw, ok := patch["text"]; ok {
		text := strings.TrimSpace(stringValue(raw))
		if text == "" {
			return models.SubtaskJSON{}, validationf("text cannot be empty")
		}
		input.Text = &text
	}
	if raw, ok := patch["done"]; ok {
		done := boolValue(raw)
		input.Done = &done
	}

	subtask, err := s.cards.UpdateSubtask(ctx, cardID, subID, input)
	if err != nil {
		return models.SubtaskJSON{}, s.subtaskError(err)
	}

	s.logger.Debug("subtask updated", "card", cardID, "id", subID)
	s.broadcastBoard(ctx)
	return subtask.JSON(), nil
}

// DeleteSubtask removes a subtask after checking both the card and the
// subtask's ownership.
func (s *CardService) DeleteSubtask(ctx context.Context, cardID, subID string) error {
	if _, err := s.cards.GetByID(ctx, cardID); err != nil {
		return s.cardError(err)
	}

	if err := s.cards.DeleteSubtask(ctx, cardID, subID); err != nil {
		return s.subtaskError(err)
	}

	s.logger.Debug("subtask deleted", "card", cardID, "id", subID)
	s.broadcastBoard(ctx)
	return nil
}

// broadcastBoard assembles a fresh snapshot and fans it out. A failed
// read only costs observers this event; the mutation already committed.
func (s *CardService) broadcastBoard(ctx context.Context) {
	snapshot, err := s.board.Snapshot(ctx)
	if err != nil {
		s.logger.Error("assemble board for broadcast", "err", err)
		return
	}
	s.hub.Broadcast(events.Event{Type: events.BoardChanged, Data: snapshot})
}

func (s *CardService) cardJSON(ctx context.Context, card *models.Card) (models.CardJSON, error) {
	subtasks, err := s.cards.SubtasksForCard(ctx, card.ID)
	if err != nil {
		return models.CardJSON{}, err
	}
	tags, err := s.cards.TagsForCard(ctx, card.ID)
	if err != nil {
		return models.CardJSON{}, err
	}
	return card.JSON(subtasks, tags), nil
}

func (s *CardService) cardError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "card"}
	}
	return err
}

func (s *CardService) subtaskError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "subtask"}
	}
	return err
}

func validateDueDate(value string) error {
	if _, err := time.Parse(models.DueDateLayout, value); err != nil {
		return validationf("invalid dueDate format, expected YYYY-MM-DD")
	}
	return nil
}

// Patch values arrive as decoded JSON (any); these helpers coerce them
// with Flask-get semantics: null and wrong types read as zero values.

func stringValue(raw any) string {
	s, _ := raw.(string)
	return s
}

func boolValue(raw any) bool {
	b, _ := raw.(bool)
	return b
}

func intValue(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func stringSlice(raw any) []string {
	items, _ := raw.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
