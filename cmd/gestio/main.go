package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gestio-erp/gestio-erp/internal/app"
	"github.com/gestio-erp/gestio-erp/internal/expenses"
	"github.com/gestio-erp/gestio-erp/internal/fec"
	"github.com/gestio-erp/gestio-erp/internal/invoices"
	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	ledgerhttp "github.com/gestio-erp/gestio-erp/internal/ledger/http"
	"github.com/gestio-erp/gestio-erp/internal/ledger/mappings"
	"github.com/gestio-erp/gestio-erp/internal/ledger/postings"
	"github.com/gestio-erp/gestio-erp/internal/ledger/query"
	"github.com/gestio-erp/gestio-erp/internal/observability"
	"github.com/gestio-erp/gestio-erp/internal/platform/cache"
	"github.com/gestio-erp/gestio-erp/internal/platform/db"
	"github.com/gestio-erp/gestio-erp/internal/reports"
	reportshttp "github.com/gestio-erp/gestio-erp/internal/reports/http"
	"github.com/gestio-erp/gestio-erp/internal/shared"
	"github.com/gestio-erp/gestio-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.DBConfig())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	reportCache := reports.NewCache(redisClient, 10*time.Minute)
	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo)

	entriesRepo := entries.NewRepository(dbpool)
	entriesService := entries.NewService(entriesRepo, auditLogger, reportCache)
	entriesService.WithMetrics(metrics)
	entriesService.WithLogger(logger)

	mappingsRepo := mappings.NewRepository(dbpool)
	ledgerHooks := postings.NewHooks(entriesService, mappingsRepo)

	engine := query.NewEngine(dbpool)
	reportsService := reports.NewService(engine, reportCache)

	expensesRepo := expenses.NewRepository(dbpool)
	expensesService := expenses.NewService(expensesRepo, ledgerHooks)

	invoicesRepo := invoices.NewRepository(dbpool)
	invoicesService := invoices.NewService(invoicesRepo, ledgerHooks)

	exporter := fec.NewExporter(entriesRepo, accountsRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		LedgerHandler:   ledgerhttp.NewHandler(logger, accountsService, entriesService, engine),
		ExpensesHandler: expenses.NewHandler(logger, expensesService),
		InvoicesHandler: invoices.NewHandler(logger, invoicesService),
		ReportsHandler:  reportshttp.NewHandler(logger, reportsService),
		ExportHandler:   fec.NewHandler(logger, exporter),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
