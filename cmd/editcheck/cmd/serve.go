package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/api"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/auth"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/config"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/db"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/server"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/metrics"
)

const shutdownGrace = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation gRPC API and Prometheus metrics",
	Long: `Starts the gRPC validation service on host:port and an HTTP server exposing
/metrics on metrics-port. Requests carry an API key in the x-api-key metadata
header unless server.require_auth is false.

Environment:
  EC_HMAC_SECRET     HMAC secret used to verify API keys (64-char hex)
  EC_HMAC_SECRET_N   additional secrets for rotation
  EC_LLM_API_KEY     API key for the openai or anthropic collaborator`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "gRPC listen host")
	serveCmd.Flags().Int("port", 0, "gRPC listen port")
	serveCmd.Flags().Int("metrics-port", 0, "metrics HTTP port (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()

	e, cleanup, err := newEngine(ctx, m)
	if err != nil {
		return err
	}
	defer cleanup()

	authenticator, closeDB, err := newAuthenticator()
	if err != nil {
		return err
	}
	defer closeDB()

	svc, err := api.NewValidationService(e, &cfg.Server, logger)
	if err != nil {
		return err
	}
	grpcServer, err := server.NewGRPCServer(&cfg.Server, svc, authenticator, logger, m)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("require_auth", cfg.Server.RequireAuth))
		return grpcServer.Start(gctx)
	})

	var metricsServer *http.Server
	if cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.MetricsPort)),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics server listening", zap.String("addr", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		var errs []error
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newAuthenticator opens the key database when authentication is required.
// With require_auth off it returns a nil authenticator.
func newAuthenticator() (*auth.Authenticator, func(), error) {
	noop := func() {}
	if !cfg.Server.RequireAuth {
		logger.Warn("authentication disabled, all requests are accepted")
		return nil, noop, nil
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, noop, err
	}
	if len(secrets) == 0 {
		return nil, noop, fmt.Errorf("no HMAC secrets configured (set EC_HMAC_SECRET or disable server.require_auth)")
	}

	conn, err := db.Open(cfg.Database.URL)
	if err != nil {
		return nil, noop, err
	}
	if err := db.MigrateUp(conn); err != nil {
		conn.Close()
		return nil, noop, err
	}
	queries, err := db.LoadQueries(conn)
	if err != nil {
		conn.Close()
		return nil, noop, err
	}
	return auth.NewAuthenticator(secrets, queries, logger), func() { conn.Close() }, nil
}
