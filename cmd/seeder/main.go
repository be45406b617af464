package main

import (
	"context"
	"flag"
	"os"

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
	ctx := context.Background()

	lh, err := bankoffice.NewLocalHelper(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting local helper")
	}
	defer lh.Close(ctx)
	if _, err = lh.InitDB(ctx); err != nil {
		logger.Fatal().Err(err).Msg("error initializing database")
	}
	pgendpt, err := bankoffice.NewPostgresEndpoint(ctx, cfg.Database, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting database")
	}
	defer pgendpt.Close()
	ids, err := bankoffice.NewIDGenerator(cfg.NodeID)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting id generator")
	}
	core, err := bankoffice.NewService(pgendpt, ids, bankoffice.NewClock(), &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting service")
	}
	svc := bankoffice.Chain(core,
		bankoffice.NewLoggingMiddleware(&logger),
		bankoffice.NewValidationMiddleware(),
	)
	if err = lh.SeedCustomers(ctx, svc); err != nil {
		logger.Fatal().Err(err).Msg("error seeding customers")
	}
	if err = lh.FundAccounts(ctx, svc); err != nil {
		logger.Fatal().Err(err).Msg("error funding seeded accounts")
	}
	logger.Info().Int("customers", len(cfg.Seed.Customers)).Msg("seed complete")
}
