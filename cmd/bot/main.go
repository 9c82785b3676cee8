package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/subosito/gotenv"

	"github.com/aminovm/inventory-bot/internal/bot"
	"github.com/aminovm/inventory-bot/internal/config"
	"github.com/aminovm/inventory-bot/internal/dialog"
	"github.com/aminovm/inventory-bot/internal/domain/appconfig"
	"github.com/aminovm/inventory-bot/internal/domain/customers"
	"github.com/aminovm/inventory-bot/internal/domain/products"
	"github.com/aminovm/inventory-bot/internal/domain/users"
	"github.com/aminovm/inventory-bot/internal/domain/warehouses"
	"github.com/aminovm/inventory-bot/internal/infra/db"
	httpx "github.com/aminovm/inventory-bot/internal/infra/http"
	"github.com/aminovm/inventory-bot/internal/infra/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string, log *slog.Logger) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN, log); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram auth failed", "err", err)
		return
	}
	log.Info("authorized", "bot", api.Self.UserName)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	b := bot.New(api, log, dialog.NewStore(),
		users.NewRepo(pool), warehouses.NewRepo(pool), customers.NewRepo(pool),
		products.NewRepo(pool), appconfig.NewRepo(pool),
		cfg.Policy.DeputyMasterData)

	if err := b.Run(ctx, cfg.Telegram.TimeoutSec); err != nil && ctx.Err() == nil {
		log.Error("bot stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
