// Package app wires the store, catalog, chat service and reporting from a
// loaded configuration. Both cmd/server and cmd/healthctl start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"health-chatbot/internal/chat"
	"health-chatbot/internal/chat/seed"
	"health-chatbot/internal/config"
	"health-chatbot/internal/platform/database"
	"health-chatbot/internal/platform/telegram"
	"health-chatbot/internal/report"
)

type App struct {
	Config  *config.Config
	DB      *sql.DB
	Repo    chat.Repository
	Catalog *chat.CatalogStore
	Chat    chat.Service
	Reports *report.Service
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// 1. Infrastructure
	db, dialect, err := database.Open(ctx, cfg.DatabaseOptions())
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to %s database.", dialect)

	repo := chat.NewRepository(db, dialect)

	if cfg.Database.Seed {
		if _, err := Seed(ctx, repo); err != nil {
			db.Close()
			return nil, err
		}
	}

	// 2. Catalog
	catalog := chat.NewCatalogStore(repo)
	c, err := catalog.Reload(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("Loaded %d diseases into the catalog.", len(c.Diseases))

	// 3. Clients
	var alerts chat.AlertNotifier
	reports := report.NewService(nil, 0, cfg.Report.Fonts)
	if cfg.AlertsEnabled() {
		tg := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.API)
		reports = report.NewService(tg, cfg.Telegram.Chat, cfg.Report.Fonts)
		alerts = reports
	} else {
		log.Println("Warning: telegram.token or telegram.chat is not set. Emergency alerts are disabled.")
	}

	// 4. Services
	return &App{
		Config:  cfg,
		DB:      db,
		Repo:    repo,
		Catalog: catalog,
		Chat:    chat.NewService(repo, catalog, alerts),
		Reports: reports,
	}, nil
}

// Seed loads the embedded disease dataset into an empty store and reports how
// many records were inserted.
func Seed(ctx context.Context, repo chat.Repository) (int, error) {
	records, err := seed.Diseases()
	if err != nil {
		return 0, err
	}

	n, err := repo.SeedDiseases(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("seed diseases: %w", err)
	}
	if n > 0 {
		log.Printf("Seeded %d diseases.", n)
	}
	return n, nil
}

// Close waits for pending alerts and releases the database.
func (a *App) Close() error {
	a.Chat.Wait()
	return a.DB.Close()
}
