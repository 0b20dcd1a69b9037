// cmd/server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/gurkanbulca/kanban/internal/config"
	"github.com/gurkanbulca/kanban/internal/database"
	"github.com/gurkanbulca/kanban/internal/events"
	"github.com/gurkanbulca/kanban/internal/repository"
	"github.com/gurkanbulca/kanban/internal/server"
	"github.com/gurkanbulca/kanban/internal/service"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found")
	}

	app := &cli.Command{
		Name:  "kanban",
		Usage: "Collaborative kanban board server",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run migrations and start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(ctx, logger)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply the database schema and exit",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, db, err := open(ctx, logger)
					if err != nil {
						return err
					}
					defer db.Close()
					return database.Migrate(ctx, db)
				},
			},
			{
				Name:  "seed",
				Usage: "Insert starter users, tags and cards into empty tables",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, db, err := open(ctx, logger)
					if err != nil {
						return err
					}
					defer db.Close()
					if err := database.Migrate(ctx, db); err != nil {
						return err
					}
					return database.Seed(ctx, db)
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func open(ctx context.Context, logger *log.Logger) (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger.Info("connecting to database", "driver", cfg.Database.Driver)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func serve(ctx context.Context, logger *log.Logger) error {
	cfg, db, err := open(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.IsDevelopment() {
		logger.SetLevel(log.DebugLevel)
	}

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	hub := events.NewHub(logger)

	userRepo := repository.NewUserRepository(db)
	tagRepo := repository.NewTagRepository(db)
	cardRepo := repository.NewCardRepository(db)

	boardService := service.NewBoardService(cardRepo)
	cardService := service.NewCardService(cardRepo, boardService, hub, logger)
	tagService := service.NewTagService(tagRepo, boardService, hub, logger)

	srv := server.New(server.Config{
		Addr:   ":" + cfg.Server.HTTPPort,
		DB:     db,
		Users:  userRepo,
		Board:  boardService,
		Cards:  cardService,
		Tags:   tagService,
		Hub:    hub,
		Logger: logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}
