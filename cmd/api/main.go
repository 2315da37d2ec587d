package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/trials-api/internal/config"
	"github.com/jwalitptl/trials-api/internal/handler"
	"github.com/jwalitptl/trials-api/internal/handler/health"
	measurementHandler "github.com/jwalitptl/trials-api/internal/handler/measurement"
	patientHandler "github.com/jwalitptl/trials-api/internal/handler/patient"
	prometheusHandler "github.com/jwalitptl/trials-api/internal/handler/prometheus"
	visitHandler "github.com/jwalitptl/trials-api/internal/handler/visit"
	"github.com/jwalitptl/trials-api/internal/repository/postgres"
	"github.com/jwalitptl/trials-api/internal/router"
	measurementService "github.com/jwalitptl/trials-api/internal/service/measurement"
	patientService "github.com/jwalitptl/trials-api/internal/service/patient"
	visitService "github.com/jwalitptl/trials-api/internal/service/visit"
	"github.com/jwalitptl/trials-api/pkg/logger"
	"github.com/jwalitptl/trials-api/pkg/metrics"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath, envFile string

	cmd := &cobra.Command{
		Use:          "trials-api",
		Short:        "Clinical trial patient, visit and measurement API",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ./config.yaml or ./config/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment when present")

	load := newLoader(&configPath, &envFile)
	cmd.AddCommand(serveCmd(load))
	cmd.AddCommand(migrateCmd(load))
	return cmd
}

type configLoader func() (*config.Config, error)

// newLoader reads the flags at call time, after cobra has parsed them.
func newLoader(configPath, envFile *string) configLoader {
	return func() (*config.Config, error) {
		// variables already set in the environment win over the file
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", *envFile, err)
		}
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		l := logger.NewLogger(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		l.Debug().Str("config", *configPath).Str("env_file", *envFile).Msg("configuration loaded")
		return cfg, nil
	}
}

func serveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("connected to database")

	if cfg.Database.AutoMigrate {
		applied, err := postgres.NewMigrator(db).Up(context.Background())
		if err != nil {
			return fmt.Errorf("auto-migrate failed: %w", err)
		}
		log.Info().Int("applied", applied).Msg("migrations up to date")
	}

	var (
		m      *metrics.Metrics
		scrape router.MetricsHandler
	)
	if cfg.Monitoring.PrometheusEnabled {
		reg := prometheus.NewRegistry()
		m = metrics.NewMetrics(reg, "trials")
		scrape = prometheusHandler.New(reg)
	}

	// Initialize services
	store := postgres.NewStore(db, m, postgres.WithBreaker(postgres.BreakerConfig{
		Failures: cfg.Database.BreakerFailures,
		Timeout:  cfg.Database.BreakerTimeout,
	}))
	patientSvc := patientService.NewService(store)
	visitSvc := visitService.NewService(store, patientSvc)
	measurementSvc := measurementService.NewService(store, visitSvc)

	// Initialize handlers
	paging := handler.Paging{DefaultLimit: cfg.API.DefaultPageSize, MaxLimit: cfg.API.MaxPageSize}

	r := router.NewRouter(
		router.RouterConfig{
			APIPrefix:   cfg.API.Prefix,
			RateLimit:   cfg.RateLimit,
			MetricsPath: cfg.Monitoring.MetricsPath,
		},
		m,
		scrape,
		health.NewHandler(db),
		patientHandler.NewHandler(patientSvc, paging),
		visitHandler.NewHandler(visitSvc, paging),
		measurementHandler.NewHandler(measurementSvc, paging),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("mode", cfg.Server.Mode).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}

func openDB(load configLoader) (*sqlx.DB, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	return postgres.NewDB(cfg.Database)
}
