package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cohortstats/cohortstats/internal/config"
	"github.com/cohortstats/cohortstats/internal/domain/cohort"
	"github.com/cohortstats/cohortstats/internal/domain/features"
	"github.com/cohortstats/cohortstats/internal/platform/auth"
	"github.com/cohortstats/cohortstats/internal/platform/db"
	"github.com/cohortstats/cohortstats/internal/platform/middleware"
	"github.com/cohortstats/cohortstats/internal/platform/reporting"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cohort-stats",
		Short: "ICU cohort statistics pipeline",
	}

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reportsCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// resolveReportIDs expands the report argument: a concrete ID runs one
// report, the empty string runs every definition.
func resolveReportIDs(arg string) ([]string, error) {
	if arg == "" {
		defs := reporting.Definitions()
		ids := make([]string, 0, len(defs))
		for _, d := range defs {
			ids = append(ids, d.ID)
		}
		return ids, nil
	}
	if reporting.FindDefinition(arg) == nil {
		return nil, fmt.Errorf("unknown report %q, see \"cohort-stats reports\"", arg)
	}
	return []string{arg}, nil
}

func buildPipeline(pool *pgxpool.Pool, logger zerolog.Logger) *reporting.Pipeline {
	return reporting.NewPipeline(
		cohort.NewService(cohort.NewRepo(pool), logger),
		features.NewService(features.NewRepo(pool), logger),
		logger,
	)
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [report-id]",
		Short: "Run the pipeline and write the stratified report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.DefaultFormat
			}
			logger := newLogger(cfg.Env)

			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			ids, err := resolveReportIDs(arg)
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			if _, err := db.VerifySchema(ctx, pool); err != nil {
				return fmt.Errorf("verify source schema: %w", err)
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			pipeline := buildPipeline(pool, logger)
			for _, id := range ids {
				rep, err := pipeline.Evaluate(ctx, id)
				if err != nil {
					return err
				}
				if len(ids) > 1 && format != "json" {
					fmt.Fprintf(out, "# %s\n", rep.ReportName)
				}
				if err := reporting.Render(out, format, rep); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format: table, csv, or json (default from config)")
	cmd.Flags().String("output", "", "Write to file instead of stdout")
	return cmd
}

func reportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List available report definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range reporting.Definitions() {
				fmt.Printf("%-20s %s\n", d.ID, d.Description)
			}
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify database connectivity and source schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			statuses, err := db.VerifySchema(ctx, pool)
			for _, s := range statuses {
				state := "ok"
				if !s.Exists {
					state = "MISSING"
				}
				fmt.Printf("%-12s %s\n", s.Name, state)
			}
			return err
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if _, err := db.VerifySchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("source schema verification failed")
	}
	logger.Info().Msg("connected to source database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.AuthSigningKey),
			Issuer:     "cohortstats",
		}))
	}

	pipeline := buildPipeline(pool, logger)
	reporting.NewHandler(pipeline).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("report API listening")
	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
