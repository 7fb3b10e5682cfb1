package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/maxviazov/crm-service/internal/auth"
	"github.com/maxviazov/crm-service/internal/handler"
	"github.com/maxviazov/crm-service/internal/repository"
	"github.com/maxviazov/crm-service/internal/repository/migrations"
	pg "github.com/maxviazov/crm-service/internal/repository/postgres"
	"github.com/maxviazov/crm-service/internal/service"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, appLogger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Postgres, &appLogger)
	if err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}
	defer pool.Close()

	if migrateOnStart {
		runner, err := migrations.NewRunner(pool, appLogger)
		if err != nil {
			return err
		}
		err = runner.Up(ctx)
		_ = runner.Close()
		if err != nil {
			return err
		}
	}

	contacts := pg.NewContactRepository(pool)
	deals := pg.NewDealRepository(pool)
	tasks := pg.NewTaskRepository(pool)
	tx := pg.NewTxManager(pool)

	limiter := handler.NewRateLimiter(cfg.HTTP.RateLimit.RPS, cfg.HTTP.RateLimit.Burst)
	defer limiter.Close()

	if cfg.App.Env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	handler.Register(engine, handler.Deps{
		Pinger: pg.NewPinger(pool),
		Verifier: auth.NewVerifier(auth.Config{
			Secret:   cfg.Auth.Secret,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		}),
		Contacts:  service.NewContactService(contacts, appLogger),
		Deals:     service.NewDealService(deals, contacts, tx, appLogger),
		Tasks:     service.NewTaskService(tasks, contacts, deals, tx, appLogger),
		Dashboard: service.NewDashboardService(pg.NewDashboardRepository(pool), contacts, appLogger),
		Limiter:   limiter,
		Logger:    appLogger,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	appLogger.Info().Msg("✅ Server stopped")
	return nil
}
