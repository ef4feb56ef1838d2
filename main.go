package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	app "github.com/rocketscienceinc/lifebattle-backend/internal"
	"github.com/rocketscienceinc/lifebattle-backend/internal/config"
)

const configFile = "config.yml"

// main loads .env and config.yml, builds the JSON logger and runs the battle server.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	// real environment variables win over .env
	_ = godotenv.Load()

	conf := loadConfig()

	// MustLoad has validated the level already
	level, _ := conf.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	logger.Info("starting lifebattle backend",
		"http_port", conf.HTTPPort,
		"oracle", conf.Oracle.Kind,
		"redis", conf.Redis.Enabled,
		"grid", fmt.Sprintf("%dx%d", conf.Game.Width, conf.Game.Height),
	)

	if err := app.RunApp(logger, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

func loadConfig() *config.Config {
	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return config.MustLoad(filepath.Join(baseDir, configFile))
}
