package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatali-fataliyev/bank_ledger/api"
	"github.com/fatali-fataliyev/bank_ledger/internal/auth"
	"github.com/fatali-fataliyev/bank_ledger/internal/config"
	"github.com/fatali-fataliyev/bank_ledger/internal/events"
	"github.com/fatali-fataliyev/bank_ledger/internal/ledger"
	"github.com/fatali-fataliyev/bank_ledger/internal/ratelimit"
	"github.com/fatali-fataliyev/bank_ledger/logging"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, opts.cfg)
		},
	}
}

func newPublisher(cfg config.KafkaConfig) events.Publisher {
	if len(cfg.Brokers) == 0 {
		logging.Logger.Info("KAFKA_BROKERS not set, transaction events are disabled")
		return events.NoopPublisher{}
	}
	logging.Logger.Infof("publishing transaction events to %s on %v", cfg.Topic, cfg.Brokers)
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// newHandler wires the service graph behind the HTTP middleware.
func newHandler(cfg *config.Config, store Store, publisher events.Publisher, limiter api.RateLimiter) (http.Handler, error) {
	proxies, err := api.ParseTrustedProxies(cfg.App.TrustedProxies)
	if err != nil {
		return nil, err
	}

	authenticator := auth.NewAuthenticator(store, cfg.Auth.JWTSecret, cfg.TokenTTL())
	service := ledger.NewService(store, authenticator, publisher)

	mux := http.NewServeMux()
	a := api.NewApi(authenticator, service, store, limiter)
	a.Proxies = proxies
	a.Register(mux)

	return api.NewCORS(cfg.App.CorsOrigins).Handler(api.WithRequestLogging(mux)), nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Logger.Info("application starting...")

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher := newPublisher(cfg.Kafka)
	defer publisher.Close()

	var limiter api.RateLimiter
	if l := ratelimit.Connect(ctx, cfg.RateLimit.RedisAddr, cfg.RateLimit.Burst, cfg.RateLimit.RPS); l != nil {
		defer l.Close()
		limiter = l
	}

	handler, err := newHandler(cfg, store, publisher, limiter)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Logger.Infof("Starting server on port: %s (storage: %s)", cfg.App.Port, store.GetStorageType())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		logging.Logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
