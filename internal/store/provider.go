package store

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/manga/internal/compress"
	"github.com/emrgen/manga/internal/config"
)

// Provided is the outcome of NewStore. Backups is nil for backends that do
// not keep document backups.
type Provided struct {
	Documents DocumentStore
	Backups   DocumentBackupStore
	Close     func() error
}

// NewStore builds the document store selected by the configuration.
func NewStore(cfg *config.Config) (*Provided, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		logrus.Infof("using in-memory document store")
		return &Provided{Documents: NewMemoryStore(), Close: func() error { return nil }}, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Protocol: 2,
		})
		logrus.Infof("using redis document store at %s", cfg.Redis.Addr)
		return &Provided{Documents: NewRedisStore(client), Close: client.Close}, nil

	case config.StoreGorm, "":
		codec, err := compress.ByName(cfg.Store.Compression)
		if err != nil {
			return nil, err
		}

		db, err := config.OpenDb(cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}

		gs := NewGormStore(db, codec)
		if err := gs.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}

		logrus.Infof("using %s document store with %s compression", cfg.DB.Driver, codec.Name())
		return &Provided{
			Documents: gs,
			Backups:   gs,
			Close: func() error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, cfg.Store.Backend)
}
