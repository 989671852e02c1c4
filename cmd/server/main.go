package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/cache"
	"github.com/ksred/papertrade-api/internal/config"
	"github.com/ksred/papertrade-api/internal/database"
	"github.com/ksred/papertrade-api/internal/logging"
	"github.com/ksred/papertrade-api/internal/market"
	"github.com/ksred/papertrade-api/internal/server"
	"github.com/ksred/papertrade-api/internal/trading"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "papertrade",
		Short:         "Simulated stock trading API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to papertrade.yaml")

	root.AddCommand(serveCmd(), recoverCmd())

	if err := root.Execute(); err != nil {
		zlog.Fatal().Err(err).Msg("papertrade failed")
	}
}

// setup loads configuration, installs the logger and opens the database
func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logging.NewLogger(cfg.Log)

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	return cfg, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recovery sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup()
			if err != nil {
				return err
			}
			gin.SetMode(cfg.Server.Mode)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			c, err := cache.New(ctx, cfg.Cache)
			if err != nil {
				return fmt.Errorf("initializing cache: %w", err)
			}

			provider := market.NewProvider(market.WithLocation(loc))
			services, err := server.NewServices(cfg, db, provider, c)
			if err != nil {
				return err
			}

			// Reconcile orders left pending by a previous crash
			recoverer := trading.NewRecoverer(services.Trading.GetDB(), cfg.Recovery.Interval, cfg.Recovery.StaleAfter)
			go recoverer.Start(ctx)

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           server.NewRouter(cfg.Server, services),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				zlog.Info().Int("port", cfg.Server.Port).Str("database", cfg.Database.Driver).Msg("server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("listen: %w", err)
			case <-ctx.Done():
			}
			zlog.Info().Msg("Shutting down server...")

			// Give outstanding requests 5 seconds to complete
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			if closer, ok := c.(interface{ Close() error }); ok {
				_ = closer.Close()
			}

			zlog.Info().Msg("Server exiting")
			return nil
		},
	}
}

func recoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Resolve stale pending orders once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup()
			if err != nil {
				return err
			}

			recoverer := trading.NewRecoverer(trading.NewDatabase(db), cfg.Recovery.Interval, cfg.Recovery.StaleAfter)
			report, err := recoverer.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("recovery sweep: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d stale orders: %d executed, %d failed\n",
				report.Scanned, report.Executed, report.Failed)
			return nil
		},
	}
}
