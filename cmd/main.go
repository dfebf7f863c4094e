package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodgram/cmd/config"
	migration "foodgram/cmd/database/migrate"
	"foodgram/cmd/database/seed"
	"foodgram/internal/logging"
	"foodgram/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	seedIngredients := flag.String("seed-ingredients", "", "load ingredients from a JSON file and exit")
	seedTags := flag.String("seed-tags", "", "load tags from a JSON file and exit")
	flag.Parse()

	if err := utils.LoadConfig(*configPath); err != nil {
		logging.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	logging.Init(logging.Config{
		Level:  utils.GetConfig("LOG_LEVEL"),
		Format: utils.GetConfig("LOG_FORMAT"),
	})

	db, err := config.ConnectDB()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := migration.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seedIngredients != "" || *seedTags != "" {
		if *seedIngredients != "" {
			if err := seed.FromFile(ctx, db, *seedIngredients, seed.Ingredients); err != nil {
				logging.Fatal().Err(err).Msg("failed to seed ingredients")
			}
		}
		if *seedTags != "" {
			if err := seed.FromFile(ctx, db, *seedTags, seed.Tags); err != nil {
				logging.Fatal().Err(err).Msg("failed to seed tags")
			}
		}
		return
	}
	if *migrateOnly {
		return
	}

	opts, err := config.LoadAppOptions(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load app options")
	}
	app, err := config.NewApp(db, opts)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create app")
	}

	go func() {
		<-ctx.Done()
		logging.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logging.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	addr := ":" + utils.GetConfig("APP_PORT")
	logging.Info().Str("addr", addr).Msg("starting server")
	if err := app.Listen(addr); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}
