package service

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gurkanbulca/kanban/internal/events"
	"github.com/gurkanbulca/kanban/internal/models"
	"github.com/gurkanbulca/kanban/internal/repository"
)

// TagService manages the shared tag catalog. Tag names are unique with
// case-sensitive comparison.
type TagService struct {
	tags   *repository.TagRepository
	board  *BoardService
	hub    *events.Hub
	logger *log.Logger
}

func NewTagService(tags *repository.TagRepository, board *BoardService, hub *events.Hub, logger *log.Logger) *TagService {
	return &TagService{tags: tags, board: board, hub: hub, logger: logger}
}

type CreateTagRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

func (s *TagService) List(ctx context.Context) ([]models.TagJSON, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.TagJSON, 0, len(tags))
	for i := range tags {
		out = append(out, tags[i].JSON())
	}
	return out, nil
}

func (s *TagService) Create(ctx context.Context, req *CreateTagRequest) (models.TagJSON, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.TagJSON{}, validationf("name is required")
	}

	if err := s.checkNameFree(ctx, name, ""); err != nil {
		return models.TagJSON{}, err
	}

	color := models.DefaultTagColor
	if req.Color != nil && *req.Color != "" {
		color = *req.Color
	}

	tag, err := s.tags.Create(ctx, name, color)
	if err != nil {
		return models.TagJSON{}, err
	}

	s.logger.Debug("tag created", "id", tag.ID, "name", tag.Name)
	s.hub.Broadcast(events.Event{Type: events.TagsChanged})
	return tag.JSON(), nil
}

// Update patches name and/or color. A rename must not collide with a
// different tag; a null color resets to the default.
func (s *TagService) Update(ctx context.Context, id string, patch map[string]any) (models.TagJSON, error) {
	input := &repository.TagUpdateInput{}

	if raw, ok := patch["name"]; ok {
		name := strings.TrimSpace(stringValue(raw))
		if name == "" {
			return models.TagJSON{}, validationf("name cannot be empty")
		}
		if err := s.checkNameFree(ctx, name, id); err != nil {
			return models.TagJSON{}, err
		}
		input.Name = &name
	}

	if raw, ok := patch["color"]; ok {
		color := stringValue(raw)
		if color == "" {
			color = models.DefaultTagColor
		}
		input.Color = &color
	}

	tag, err := s.tags.Update(ctx, id, input)
	if err != nil {
		return models.TagJSON{}, s.tagError(err)
	}

	s.logger.Debug("tag updated", "id", id)
	s.hub.Broadcast(events.Event{Type: events.TagsChanged})
	return tag.JSON(), nil
}

// Delete detaches the tag from every card, removes it, and notifies both
// the tag list and the board (card serializations changed).
func (s *TagService) Delete(ctx context.Context, id string) error {
	if err := s.tags.Delete(ctx, id); err != nil {
		return s.tagError(err)
	}

	s.logger.Debug("tag deleted", "id", id)
	s.hub.Broadcast(events.Event{Type: events.TagsChanged})

	snapshot, err := s.board.Snapshot(ctx)
	if err != nil {
		s.logger.Error("assemble board for broadcast", "err", err)
		return nil
	}
	s.hub.Broadcast(events.Event{Type: events.BoardChanged, Data: snapshot})
	return nil
}

// checkNameFree fails when another tag already holds the name. excludeID
// lets a rename keep its own name.
func (s *TagService) checkNameFree(ctx context.Context, name, excludeID string) error {
	existing, err := s.tags.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != excludeID {
		return validationf("tag with this name already exists")
	}
	return nil
}

func (s *TagService) tagError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "tag"}
	}
	return err
}
