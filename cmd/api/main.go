package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/storelink/transfer-api/internal/application/auth"
	appsync "github.com/storelink/transfer-api/internal/application/sync"
	"github.com/storelink/transfer-api/internal/application/transfer"
	"github.com/storelink/transfer-api/internal/infrastructure/byd"
	"github.com/storelink/transfer-api/internal/infrastructure/icg"
	infrapdf "github.com/storelink/transfer-api/internal/infrastructure/pdf"
	"github.com/storelink/transfer-api/internal/infrastructure/postgres"
	httpRouter "github.com/storelink/transfer-api/internal/interfaces/http"
	"github.com/storelink/transfer-api/pkg/config"
	"github.com/storelink/transfer-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	storeRepo := postgres.NewStoreRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	grantRepo := postgres.NewStoreAuthorizationRepository(pool)
	orderRepo := postgres.NewSalesOrderRepository(pool)
	issueRepo := postgres.NewGoodsIssueRepository(pool)
	receiptRepo := postgres.NewTransferReceiptRepository(pool)
	summaryRepo := postgres.NewSummaryRepository(pool)
	syncRepo := postgres.NewSyncEventRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authority := transfer.NewAuthorityService(grantRepo)
	ledger := transfer.NewLedger(txRunner, orderRepo, issueRepo, receiptRepo)
	enqueuer := appsync.NewEnqueuer(syncRepo, nil)
	engine := transfer.NewEngine(ledger, authority, enqueuer, log, nil)
	queries := transfer.NewQueries(orderRepo, issueRepo, receiptRepo, summaryRepo, authority)
	importUC := transfer.NewImportUseCase(txRunner, orderRepo, storeRepo, nil)

	authUC := auth.NewUseCase(userRepo, grantRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	bydClient := byd.NewClient(cfg.BYD, storeRepo, log.Component("byd"))
	icgClient := icg.NewClient(cfg.ICG, storeRepo, log.Component("icg"))

	hostname, _ := os.Hostname()
	dispatcher := appsync.NewDispatcher(
		syncRepo, ledger, ledger,
		[]appsync.Target{bydClient, icgClient},
		appsync.NewLogAlerter(log), log.Component("dispatcher"),
		appsync.Options{
			WorkerID:    hostname,
			BatchSize:   cfg.Sync.BatchSize,
			Interval:    cfg.Sync.Interval,
			LockTTL:     cfg.Sync.LockTTL,
			MaxAttempts: cfg.Sync.MaxAttempts,
			BaseBackoff: cfg.Sync.BaseBackoff,
			MaxBackoff:  cfg.Sync.MaxBackoff,
		},
		nil,
	)
	go dispatcher.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs, served only when the
	// generated OpenAPI document is present.
	if !httpRouter.MountDocs(app, "./docs/swagger.json", "StoreLink Transfer API") {
		log.Warn().Msg("docs/swagger.json not found, swagger UI disabled")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		Engine:     engine,
		Queries:    queries,
		ImportUC:   importUC,
		Authority:  authority,
		Fetcher:    bydClient,
		StoreRepo:  storeRepo,
		PDF:        infrapdf.NewIssueNotePDF(),
		Dispatcher: dispatcher,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
