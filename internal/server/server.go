// Package server exposes the board over HTTP+JSON plus a server-sent
// events stream for live updates.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/kanban/internal/events"
	"github.com/gurkanbulca/kanban/internal/repository"
	"github.com/gurkanbulca/kanban/internal/service"
)

type Server struct {
	db     *sqlx.DB
	users  *repository.UserRepository
	board  *service.BoardService
	cards  *service.CardService
	tags   *service.TagService
	hub    *events.Hub
	logger *log.Logger

	http *http.Server
}

type Config struct {
	Addr   string
	DB     *sqlx.DB
	Users  *repository.UserRepository
	Board  *service.BoardService
	Cards  *service.CardService
	Tags   *service.TagService
	Hub    *events.Hub
	Logger *log.Logger
}

func New(cfg Config) *Server {
	s := &Server{
		db:     cfg.DB,
		users:  cfg.Users,
		board:  cfg.Board,
		cards:  cfg.Cards,
		tags:   cfg.Tags,
		hub:    cfg.Hub,
		logger: cfg.Logger,
	}

	handler := chain(s.routes(),
		Recoverer(cfg.Logger),
		RequestLogger(cfg.Logger),
		CORS(),
	)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// no WriteTimeout: the events stream stays open indefinitely
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/board", s.handleBoard)
	mux.HandleFunc("GET /api/users", s.handleUsers)

	mux.HandleFunc("GET /api/tags", s.handleListTags)
	mux.HandleFunc("POST /api/tags", s.handleCreateTag)
	mux.HandleFunc("PATCH /api/tags/{id}", s.handleUpdateTag)
	mux.HandleFunc("DELETE /api/tags/{id}", s.handleDeleteTag)

	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("PATCH /api/cards/{id}", s.handleUpdateCard)
	mux.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard)
	mux.HandleFunc("POST /api/cards/{id}/move", s.handleMoveCard)
	mux.HandleFunc("POST /api/cards/{id}/archive", s.handleArchiveCard)
	mux.HandleFunc("POST /api/cards/{id}/unarchive", s.handleUnarchiveCard)
	mux.HandleFunc("GET /api/archived", s.handleArchivedCards)

	mux.HandleFunc("POST /api/cards/{id}/subtasks", s.handleAddSubtask)
	mux.HandleFunc("PATCH /api/cards/{id}/subtasks/{subId}", s.handleUpdateSubtask)
	mux.HandleFunc("DELETE /api/cards/{id}/subtasks/{subId}", s.handleDeleteSubtask)

	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return mux
}

// Handler returns the fully wrapped HTTP handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
