package main

import (
	"flag"
	"os"

	"gallery-watermark/internal/app/batch"
	"gallery-watermark/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	zlog.Init()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	batchApp, err := batch.NewBatch(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create batch")
	}

	if err := batchApp.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Batch failed")
	}

	zlog.Logger.Info().Msg("Batch exited successfully")
	os.Exit(0)
}
