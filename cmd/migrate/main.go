// migrate runs DB migrations from embedded SQL; use with go run ./cmd/migrate.
package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/config"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/db/migrate"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/logger"
)

func main() {
	direction := flag.String("direction", migrate.Up, "Migration direction: up or down")
	status := flag.Bool("status", false, "Print the schema version and the embedded migrations, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Setup(cfg.LogDev)
	if cfg.DatabaseURL == "" {
		log.Fatal().Err(migrate.ErrMissingDSN).Msg("migrate")
	}

	if *status {
		files, err := migrate.Files()
		if err != nil {
			log.Fatal().Err(err).Msg("list migrations")
		}
		v, dirty, err := migrate.Version(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("schema version")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Strs("files", files).Msg("migration status")
		return
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
}
