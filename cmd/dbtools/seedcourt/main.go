// cmd/dbtools/seedcourt/main.go
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/config"
	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/db"
)

// Registers a court in the local catalog table so it can be scheduled and
// booked without the upstream court service.
func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the YAML configuration file")
		owner      = flag.Int64("owner", 0, "owner user id")
		name       = flag.String("name", "", "court name")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	store, err := courts.NewStore(database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create court store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	court, err := store.Create(ctx, *owner, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create court")
	}
	log.Info().
		Int64("court_id", court.ID).
		Int64("owner_user_id", court.OwnerUserID).
		Str("name", court.Name).
		Msg("Court created")
}
