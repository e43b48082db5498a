package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/manga/internal/config"
	"github.com/emrgen/manga/internal/server"
)

func main() {
	cfg := config.LoadConfig()
	if os.Getenv(config.EnvStoreBackend) == "" {
		cfg.Store.Backend = config.StoreMemory
	}
	cfg.Log.Level = "debug"
	config.SetupLogger(cfg.Log)

	if err := server.Start(cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}
