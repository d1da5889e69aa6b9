package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-gift-exchange/internal/config"
	httpapi "github.com/tbourn/go-gift-exchange/internal/http"
	"github.com/tbourn/go-gift-exchange/internal/observability"
	"github.com/tbourn/go-gift-exchange/internal/services"
	"github.com/tbourn/go-gift-exchange/internal/sysutil"
)

const (
	shutdownTimeout      = 10 * time.Second
	sessionPurgeInterval = time.Hour
)

// NewServeCommand creates the serve command.
//
// @title                      Gift Exchange API
// @version                    1.0
// @description                Register, post wishes and contact details, and read your secret gift assignment once it is drawn at the deadline.
// @BasePath                   /api/v1
// @securityDefinitions.apikey SessionToken
// @in                         header
// @name                       Authorization
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the assignment scheduler",
		Long: `Run the HTTP API and arm the assignment scheduler.

On start the durable job record is consulted: a completed draw is never
repeated, and a deadline that passed while the process was down is caught
up immediately. SIGINT or SIGTERM stops the server gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitConfigError, "invalid configuration", err)
			}
			sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
			gin.SetMode(cfg.GinMode)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, sysutil.FirstNonEmpty(rootOpts.Version, os.Getenv("APP_VERSION"), "dev"))
		},
	}
}

// serve runs until ctx is cancelled or the listener fails.
func serve(ctx context.Context, cfg config.Config, version string) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return WrapExitError(ExitFailure, "opentelemetry", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDatabase(cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "database", err)
	}
	defer closeDatabase(db)

	sched := services.NewScheduler(db, cfg.Deadline)
	sched.RetryInterval = cfg.RetryInterval
	if err := sched.OnStartup(ctx, time.Now()); err != nil {
		// The job stays pending; the retry timer or the next start picks it up.
		log.Error().Err(err).Time("deadline", cfg.Deadline).Msg("assignment draw at startup failed")
	}
	defer sched.OnShutdown()

	go purgeExpiredSessions(ctx, services.NewSessionService(db, nil, cfg.SessionTTL), sessionPurgeInterval)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, sched, cfg)
	srv := newHTTPServer(cfg, r)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Time("deadline", cfg.Deadline).
			Str("state", string(sched.State())).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "http server", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return WrapExitError(ExitFailure, "http shutdown", err)
	}
	return nil
}

func newHTTPServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeExpiredSessions deletes expired sessions every interval until ctx ends.
func purgeExpiredSessions(ctx context.Context, p sessionPurger, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("purge expired sessions")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged expired sessions")
			}
		}
	}
}
