package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/kanban/internal/events"
	"github.com/gurkanbulca/kanban/internal/models"
)

func TestCreateCardRequiresTitle(t *testing.T) {
	env := setupTest(t)
	sub := env.hub.Subscribe()
	defer sub.Close()

	_, err := env.cards.Create(context.Background(), &CreateCardRequest{Title: "   "})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, env.countRows(t, "cards"))
	assert.Empty(t, drainEvents(sub), "validation failure must not notify observers")
}

func TestCreateCardRejectsInvalidColumn(t *testing.T) {
	env := setupTest(t)

	_, err := env.cards.Create(context.Background(), &CreateCardRequest{Title: "x", Column: "doing"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateCardRejectsMalformedDueDate(t *testing.T) {
	env := setupTest(t)

	_, err := env.cards.Create(context.Background(), &CreateCardRequest{Title: "x", DueDate: "15-06-2025"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, env.countRows(t, "cards"))
}

func TestCreateCardDefaultsAndTrims(t *testing.T) {
	env := setupTest(t)

	card, err := env.cards.Create(context.Background(), &CreateCardRequest{
		Title:       "  Ship it  ",
		Description: "  details  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ship it", card.Title)
	assert.Equal(t, "details", card.Description)
	assert.Nil(t, card.DueDate)
	assert.Nil(t, card.Assignee)
	assert.Nil(t, card.EstimatedTime)
	assert.False(t, card.Archived)

	snapshot, err := env.board.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Todo, 1, "column defaults to todo")
}

func TestCreateCardWithSubtasksSkipsBlankText(t *testing.T) {
	env := setupTest(t)

	card, err := env.cards.Create(context.Background(), &CreateCardRequest{
		Title: "x",
		Subtasks: []SubtaskRequest{
			{Text: "first"},
			{Text: "   "},
			{Text: "second", Done: true},
		},
	})
	require.NoError(t, err)

	require.Len(t, card.Subtasks, 2)
	texts := []string{card.Subtasks[0].Text, card.Subtasks[1].Text}
	assert.ElementsMatch(t, []string{"first", "second"}, texts)
}

func TestCreateCardIgnoresUnknownTagIDs(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	tag, err := env.tags.Create(ctx, &CreateTagRequest{Name: "Bug"})
	require.NoError(t, err)

	card, err := env.cards.Create(ctx, &CreateCardRequest{
		Title:  "x",
		TagIDs: []string{tag.ID, "no-such-tag"},
	})
	require.NoError(t, err)

	require.Len(t, card.Tags, 1)
	assert.Equal(t, tag.ID, card.Tags[0].ID)
}

func TestUpdateCardPartialPatch(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	card := createCard(t, env, &CreateCardRequest{
		Title:    "before",
		DueDate:  "2025-04-01",
		Assignee: "Alice",
	})

	updated, err := env.cards.Update(ctx, card.ID, map[string]any{
		"title":         "after",
		"estimatedTime": float64(90),
	})
	require.NoError(t, err)

	assert.Equal(t, "after", updated.Title)
	require.NotNil(t, updated.EstimatedTime)
	assert.Equal(t, int64(90), *updated.EstimatedTime)
	// untouched fields survive
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, "2025-04-01", *updated.DueDate)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, "Alice", *updated.Assignee)
}

func TestUpdateCardClearsNullableFields(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	card := createCard(t, env, &CreateCardRequest{
		Title:    "x",
		DueDate:  "2025-04-01",
		Assignee: "Alice",
	})

	updated, err := env.cards.Update(ctx, card.ID, map[string]any{
		"dueDate":  nil,
		"assignee": nil,
	})
	require.NoError(t, err)

	assert.Nil(t, updated.DueDate)
	assert.Nil(t, updated.Assignee)
}

func TestUpdateCardRejectsEmptyTitle(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	card := createCard(t, env, &CreateCardRequest{Title: "x"})

	_, err := env.cards.Update(ctx, card.ID, map[string]any{"title": "  "})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateCardReplacesTags(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	bug, err := env.tags.Create(ctx, &CreateTagRequest{Name: "Bug"})
	require.NoError(t, err)
	feature, err := env.tags.Create(ctx, &CreateTagRequest{Name: "Feature"})
	require.NoError(t, err)

	card := createCard(t, env, &CreateCardRequest{Title: "x", TagIDs: []string{bug.ID}})

	updated, err := env.cards.Update(ctx, card.ID, map[string]any{
		"tagIds": []any{feature.ID},
	})
	require.NoError(t, err)

	require.Len(t, updated.Tags, 1)
	assert.Equal(t, feature.ID, updated.Tags[0].ID)
}

func TestUpdateCardNotFound(t *testing.T) {
	env := setupTest(t)

	_, err := env.cards.Update(context.Background(), "missing", map[string]any{"title": "x"})

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestMoveCard(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	card := createCard(t, env, &CreateCardRequest{Title: "c", Column: models.ColumnTodo})

	position := int64(3)
	result, err := env.cards.Move(ctx, card.ID, &MoveCardRequest{
		ToColumn: models.ColumnDone,
		Position: &position,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ColumnTodo, result.FromColumn)
	assert.Equal(t, models.ColumnDone, result.ToColumn)
	require.NotNil(t, result.Position)
	assert.Equal(t, position, *result.Position)
	assert.Equal(t, card.ID, result.Card.ID)

	snapshot, err := env.board.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Todo)
	require.Len(t, snapshot.Done, 1)
	assert.Equal(t, card.ID, snapshot.Done[0].ID)
}

func TestMoveCardInvalidColumn(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	card := createCard(t, env, &CreateCardRequest{Title: "c"})

	_, err := env.cards.Move(ctx, card.ID, &MoveCardRequest{ToColumn: "backlog"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestMoveCardNotFound(t *testing.T) {
	env := setupTest(t)

	_, err := env.cards.Move(context.Background(), "missing", &MoveCardRequest{ToColumn: models.ColumnDone})

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestArchiveRoundTrip(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	card := createCard(t, env, &CreateCardRequest{Title: "c"})

	archived, err := env.cards.Archive(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	list, err := env.cards.Archived(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, card.ID, list[0].ID)

	restored, err := env.cards.Unarchive(ctx, card.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)

	list, err = env.cards.Archived(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestArchivedCardStaysEditable(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	card := createCard(t, env, &CreateCardRequest{Title: "c"})
	_, err := env.cards.Archive(ctx, card.ID)
	require.NoError(t, err)

	updated, err := env.cards.Update(ctx, card.ID, map[string]any{"title": "still editable"})
	require.NoError(t, err)
	assert.Equal(t, "still editable", updated.Title)

	_, err = env.cards.AddSubtask(ctx, card.ID, &SubtaskRequest{Text: "works too"})
	require.NoError(t, err)
}

func TestSubtaskLifecycle(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	card := createCard(t, env, &CreateCardRequest{Title: "c"})

	subtask, err := env.cards.AddSubtask(ctx, card.ID, &SubtaskRequest{Text: " write tests "})
	require.NoError(t, err)
	assert.Equal(t, "write tests", subtask.Text)
	assert.False(t, subtask.Done)

	updated, err := env.cards.UpdateSubtask(ctx, card.ID, subtask.ID, map[string]any{"done": true})
	require.NoError(t, err)
	assert.True(t, updated.Done)
	assert.Equal(t, "write tests", updated.Text)

	require.NoError(t, env.cards.DeleteSubtask(ctx, card.ID, subtask.ID))
	assert.Equal(t, 0, env.countRows(t, "subtasks"))
}

func TestAddSubtaskValidatesTextBeforeLookup(t *testing.T) {
	env := setupTest(t)

	_, err := env.cards.AddSubtask(context.Background(), "missing", &SubtaskRequest{Text: " "})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr, "blank text is a validation error even for unknown cards")
}

func TestSubtaskOwnershipEnforced(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	first := createCard(t, env, &CreateCardRequest{Title: "first"})
	second := createCard(t, env, &CreateCardRequest{Title: "second"})

	subtask, err := env.cards.AddSubtask(ctx, first.ID, &SubtaskRequest{Text: "mine"})
	require.NoError(t, err)

	var nerr *NotFoundError
	_, err = env.cards.UpdateSubtask(ctx, second.ID, subtask.ID, map[string]any{"done": true})
	require.ErrorAs(t, err, &nerr)

	err = env.cards.DeleteSubtask(ctx, second.ID, subtask.ID)
	require.ErrorAs(t, err, &nerr)
}

func TestMutationsBroadcastBoardSnapshot(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	sub := env.hub.Subscribe()
	defer sub.Close()

	card := createCard(t, env, &CreateCardRequest{Title: "c"})

	evs := drainEvents(sub)
	require.Len(t, evs, 1)
	assert.Equal(t, events.BoardChanged, evs[0].Type)

	snapshot, ok := evs[0].Data.(*BoardSnapshot)
	require.True(t, ok)
	require.Len(t, snapshot.Todo, 1)
	assert.Equal(t, card.ID, snapshot.Todo[0].ID)

	_, err := env.cards.Move(ctx, card.ID, &MoveCardRequest{ToColumn: models.ColumnDone})
	require.NoError(t, err)

	evs = drainEvents(sub)
	require.Len(t, evs, 1)
	assert.Equal(t, events.BoardChanged, evs[0].Type)
}

func TestCardRoundTripSerialization(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	tag, err := env.tags.Create(ctx, &CreateTagRequest{Name: "Urgent"})
	require.NoError(t, err)

	estimated := int64(120)
	card, err := env.cards.Create(ctx, &CreateCardRequest{
		Title:         "Full card",
		Description:   "all fields",
		DueDate:       "2025-09-30",
		Assignee:      "Bob",
		EstimatedTime: &estimated,
		Subtasks:      []SubtaskRequest{{Text: "one", Done: true}},
		TagIDs:        []string{tag.ID},
	})
	require.NoError(t, err)

	fetched, err := env.cards.Update(ctx, card.ID, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, "Full card", fetched.Title)
	assert.Equal(t, "all fields", fetched.Description)
	require.NotNil(t, fetched.DueDate)
	assert.Equal(t, "2025-09-30", *fetched.DueDate)
	require.NotNil(t, fetched.Assignee)
	assert.Equal(t, "Bob", *fetched.Assignee)
	require.NotNil(t, fetched.EstimatedTime)
	assert.Equal(t, estimated, *fetched.EstimatedTime)
	assert.False(t, fetched.Archived)
	require.Len(t, fetched.Subtasks, 1)
	assert.Equal(t, "one", fetched.Subtasks[0].Text)
	assert.True(t, fetched.Subtasks[0].Done)
	require.Len(t, fetched.Tags, 1)
	assert.Equal(t, "Urgent", fetched.Tags[0].Name)
}
