package service

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/kanban/internal/database"
	"github.com/gurkanbulca/kanban/internal/events"
	"github.com/gurkanbulca/kanban/internal/repository"
)

// Test helpers

type testEnv struct {
	db    *sqlx.DB
	hub   *events.Hub
	board *BoardService
	cards *CardService
	tags  *TagService
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlx.Open("sqlite3", "file::memory:?_fk=1")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))

	logger := log.New(io.Discard)
	hub := events.NewHub(logger)

	cardRepo := repository.NewCardRepository(db)
	tagRepo := repository.NewTagRepository(db)
	board := NewBoardService(cardRepo)

	return &testEnv{
		db:    db,
		hub:   hub,
		board: board,
		cards: NewCardService(cardRepo, board, hub, logger),
		tags:  NewTagService(tagRepo, board, hub, logger),
	}
}

func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	require.NoError(t, e.db.Get(&count, `SELECT COUNT(*) FROM `+table))
	return count
}

// drainEvents empties pending hub events for a subscriber and returns them.
func drainEvents(sub *events.Subscriber) []events.Event {
	var out []events.Event
	for {
		select {
		case ev := <-sub.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}
