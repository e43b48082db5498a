package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GetDb opens the configured database. It exits the process when the
// database cannot be opened.
func GetDb(cfg *Config) *gorm.DB {
	db, err := OpenDb(cfg)
	if err != nil {
		logrus.Fatalf("error opening %s database: %v", cfg.DB.Driver, err)
	}

	return db
}

func OpenDb(cfg *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Env == "dev" && cfg.Log.Level == "debug" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	switch cfg.DB.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DB.DSN), gormConfig)
	default:
		if dir := filepath.Dir(cfg.DB.DSN); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return gorm.Open(sqlite.Open(cfg.DB.DSN), gormConfig)
	}
}
