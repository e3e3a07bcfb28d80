package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog/log"

	"orgconsole/internal/pkg/logger"
	"orgconsole/internal/platform/config"
	"orgconsole/internal/platform/database"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	seed := flag.Bool("seed", true, "Seed roles, subscription plans and the default organization")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if *seed {
		if err := database.Seed(ctx, db, cfg.Seed); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
	}

	log.Info().Bool("seeded", *seed).Msg("migration completed successfully")
}
