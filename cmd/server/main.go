package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arhyth/bankoffice"

	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfp := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()
	cfg, err := bankoffice.LoadConfig(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgendpt, err := bankoffice.NewPostgresEndpoint(ctx, cfg.Database, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting database")
	}
	defer pgendpt.Close()

	ids, err := bankoffice.NewIDGenerator(cfg.NodeID)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting id generator")
	}

	var opts []bankoffice.ServiceOption
	if cfg.Loans.StrictTransitions {
		opts = append(opts, bankoffice.WithStrictLoanTransitions())
	}
	core, err := bankoffice.NewService(pgendpt, ids, bankoffice.NewClock(), &logger, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting service")
	}
	svc := bankoffice.Chain(core,
		bankoffice.NewLoggingMiddleware(&logger),
		bankoffice.NewValidationMiddleware(),
		bankoffice.NewCircuitBreakMiddleware(bankoffice.NewServiceBreaker(cfg.Breaker, &logger)),
		bankoffice.NewLimitMiddleware(bankoffice.NewServiceLimits(cfg.Limits)),
	)
	hndlr := bankoffice.NewHTTPHandler(svc, &logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      hndlr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("error serving HTTP")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Err(err).Msg("error shutting down HTTP server")
	}
}
