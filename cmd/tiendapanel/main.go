package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driven/crmapi"
	sqliteadapter "github.com/ericfisherdev/tiendapanel/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"api_base_url", cfg.APIBaseURL,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"stock_poll", cfg.StockPoll,
		"storefront_session_first", cfg.StorefrontSessionFirst,
	)
	if !cfg.HasSecretKey() {
		slog.Warn("TIENDAPANEL_SECRET_KEY not set, logins cannot be persisted")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	sessionStore := sqliteadapter.NewSessionRepo(db, cfg.SecretKey, slog.Default())
	prefStore := sqliteadapter.NewPreferenceRepo(db)

	router := application.NewTokenRouter(sessionStore, cfg.StorefrontSessionFirst, slog.Default())
	api, err := crmapi.NewClient(cfg.APIBaseURL, router, crmapi.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	// 6. Create application services.
	guard := application.NewSessionGuard(sessionStore, slog.Default())
	authSvc := application.NewAuthService(api, sessionStore, slog.Default())
	pipelineSvc := application.NewPipelineService(api, prefStore, slog.Default())
	backupSvc := application.NewBackupService(api, cfg.RefreshDelay, slog.Default())
	storefrontSvc := application.NewStorefrontService(api, slog.Default())
	reportSvc := application.NewReportService(api, slog.Default())

	// 7. Start the stock alert poller.
	stockSvc := application.NewStockAlertService(api, cfg.StockPoll, slog.Default())
	go stockSvc.Start(ctx)

	// 8. Register JSON API, metrics and GUI routes.
	mux := http.NewServeMux()
	apiHandler := httphandler.NewHandler(pipelineSvc, stockSvc, guard, slog.Default())
	httphandler.RegisterAPIRoutes(mux, apiHandler)
	httphandler.RegisterMetricsRoute(mux)

	webHandler := webhandler.NewHandler(authSvc, pipelineSvc, backupSvc, stockSvc, guard, storefrontSvc, reportSvc, api, api, slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	handler := httphandler.ApplyMiddleware(mux, slog.Default(), cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute, // backup archive uploads
		WriteTimeout:      5 * time.Minute, // backup downloads and the post-create refresh delay
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("tiendapanel started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
