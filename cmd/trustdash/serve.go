package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	avatarhandler "trustdash/internal/avatar/handler"
	"trustdash/internal/dashboard"
	jwttoken "trustdash/internal/jwt_token"
	"trustdash/internal/platform/config"
	"trustdash/internal/platform/httpserver"
	"trustdash/internal/platform/logger"
	httptransport "trustdash/internal/transport/http"
	trusthandler "trustdash/internal/trust/handler"
	wallethandler "trustdash/internal/wallet/handler"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().Bool("regulated", false, "refuse development defaults")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.Log.Format, cfg.Log.Level)

	st := newStack(cfg, log, newModuleMetrics())
	defer st.close()

	svc, err := st.services(ctx)
	if err != nil {
		return err
	}

	limiter, err := st.rateLimiter(ctx)
	if err != nil {
		return fmt.Errorf("build rate limiter: %w", err)
	}
	var rateLimit func(http.Handler) http.Handler
	if limiter != nil {
		rateLimit = limiter.Handler
	}

	tokens := jwttoken.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   st.metrics.http,
		Validator: jwttoken.NewJWTServiceAdapter(tokens),
		RateLimit: rateLimit,
		Handlers: []httptransport.Registrar{
			trusthandler.New(svc.trust, log),
			avatarhandler.New(svc.avatar, log),
			wallethandler.New(svc.wallet, log),
			dashboard.NewHandler(svc.dashboard, log),
		},
		Checks: st.checks,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting trustdash",
			"addr", cfg.Server.Addr,
			"ledger", cfg.Ledger.Backend,
			"cache", cfg.Cache.Backend,
			"audit", cfg.Audit.Backend,
			"regulated", cfg.Server.RegulatedMode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
