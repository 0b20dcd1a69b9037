package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gurkanbulca/kanban/internal/models"
	"github.com/gurkanbulca/kanban/internal/repository"
)

// BoardService assembles the live board view: non-archived cards grouped
// by column and sorted. It is read-only and safe to call at any time.
type BoardService struct {
	cards *repository.CardRepository
}

func NewBoardService(cards *repository.CardRepository) *BoardService {
	return &BoardService{cards: cards}
}

// BoardSnapshot is the serialized three-column board. Column slices are
// never nil so they marshal as [].
type BoardSnapshot struct {
	Todo       []models.CardJSON `json:"todo"`
	InProgress []models.CardJSON `json:"in_progress"`
	Done       []models.CardJSON `json:"done"`
}

// Snapshot reads the committed card state and produces the board view.
func (s *BoardService) Snapshot(ctx context.Context) (*BoardSnapshot, error) {
	cards, err := s.cards.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	subtasksByCard, err := s.cards.SubtasksByCard(ctx)
	if err != nil {
		return nil, err
	}
	tagsByCard, err := s.cards.TagsByCard(ctx)
	if err != nil {
		return nil, err
	}

	byColumn := map[string][]models.Card{}
	for _, card := range cards {
		byColumn[card.Column] = append(byColumn[card.Column], card)
	}

	snapshot := &BoardSnapshot{
		Todo:       []models.CardJSON{},
		InProgress: []models.CardJSON{},
		Done:       []models.CardJSON{},
	}
	for column, columnCards := range byColumn {
		sortCards(columnCards)

		serialized := make([]models.CardJSON, 0, len(columnCards))
		for i := range columnCards {
			card := &columnCards[i]
			serialized = append(serialized, card.JSON(subtasksByCard[card.ID], tagsByCard[card.ID]))
		}

		switch column {
		case models.ColumnTodo:
			snapshot.Todo = serialized
		case models.ColumnInProgress:
			snapshot.InProgress = serialized
		case models.ColumnDone:
			snapshot.Done = serialized
		}
	}

	return snapshot, nil
}

// sortCards orders a column: due date ascending with undated (or
// unparseable) cards last, then case-insensitive title, then id so equal
// titles keep a stable order.
func sortCards(cards []models.Card) {
	sort.Slice(cards, func(i, j int) bool {
		di, okI := dueDate(&cards[i])
		dj, okJ := dueDate(&cards[j])

		if okI != okJ {
			return okI
		}
		if okI && !di.Equal(dj) {
			return di.Before(dj)
		}

		ti := strings.ToLower(cards[i].Title)
		tj := strings.ToLower(cards[j].Title)
		if ti != tj {
			return ti < tj
		}
		return cards[i].ID < cards[j].ID
	})
}

func dueDate(card *models.Card) (time.Time, bool) {
	if !card.DueDate.Valid {
		return time.Time{}, false
	}
	t, err := time.Parse(models.DueDateLayout, card.DueDate.String)
	if err != nil {
		// an unparseable stored date sorts with the undated cards
		return time.Time{}, false
	}
	return t, true
}
