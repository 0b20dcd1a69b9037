package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/kanban/internal/models"
)

func createCard(t *testing.T, env *testEnv, req *CreateCardRequest) models.CardJSON {
	t.Helper()
	card, err := env.cards.Create(context.Background(), req)
	require.NoError(t, err)
	return card
}

func titles(cards []models.CardJSON) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Title
	}
	return out
}

func TestSnapshotGroupsByColumn(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	createCard(t, env, &CreateCardRequest{Title: "a", Column: models.ColumnTodo})
	createCard(t, env, &CreateCardRequest{Title: "b", Column: models.ColumnInProgress})
	createCard(t, env, &CreateCardRequest{Title: "c", Column: models.ColumnDone})

	snapshot, err := env.board.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, titles(snapshot.Todo))
	assert.Equal(t, []string{"b"}, titles(snapshot.InProgress))
	assert.Equal(t, []string{"c"}, titles(snapshot.Done))
}

func TestSnapshotSortsByDueDateThenTitle(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	createCard(t, env, &CreateCardRequest{Title: "zeta", DueDate: "2025-01-01"})
	createCard(t, env, &CreateCardRequest{Title: "alpha", DueDate: "2025-03-01"})
	createCard(t, env, &CreateCardRequest{Title: "Beta", DueDate: "2025-01-01"})
	createCard(t, env, &CreateCardRequest{Title: "undated-b"})
	createCard(t, env, &CreateCardRequest{Title: "Undated-a"})

	snapshot, err := env.board.Snapshot(ctx)
	require.NoError(t, err)

	// dated ascending, same-day ties case-insensitive by title, undated last
	assert.Equal(t,
		[]string{"Beta", "zeta", "alpha", "Undated-a", "undated-b"},
		titles(snapshot.Todo))
}

func TestSnapshotUnparseableDateSortsLast(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	createCard(t, env, &CreateCardRequest{Title: "dated", DueDate: "2025-06-15"})

	// a malformed stored date can only exist from legacy rows; inject one
	_, err := env.db.Exec(
		`INSERT INTO cards (id, title, due_date, "column") VALUES (?, ?, ?, ?)`,
		models.NewID(), "broken", "junk-date", models.ColumnTodo)
	require.NoError(t, err)

	snapshot, err := env.board.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"dated", "broken"}, titles(snapshot.Todo))
}

func TestSnapshotExcludesArchived(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	keep := createCard(t, env, &CreateCardRequest{Title: "keep", Column: models.ColumnDone})
	hide := createCard(t, env, &CreateCardRequest{Title: "hide", Column: models.ColumnDone})

	_, err := env.cards.Archive(ctx, hide.ID)
	require.NoError(t, err)

	snapshot, err := env.board.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{keep.Title}, titles(snapshot.Done))
	assert.Empty(t, snapshot.Todo)
	assert.Empty(t, snapshot.InProgress)
}

func TestSnapshotStableOrderForIdenticalTitles(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	createCard(t, env, &CreateCardRequest{Title: "same"})
	createCard(t, env, &CreateCardRequest{Title: "same"})

	first, err := env.board.Snapshot(ctx)
	require.NoError(t, err)
	second, err := env.board.Snapshot(ctx)
	require.NoError(t, err)

	require.Len(t, first.Todo, 2)
	assert.Equal(t, first.Todo[0].ID, second.Todo[0].ID)
	assert.Equal(t, first.Todo[1].ID, second.Todo[1].ID)
}
