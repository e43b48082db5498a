package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/manga/internal/store"
)

var _ CronJob = (*BackupCleaner)(nil)

// BackupCleaner keeps the newest backups of every document and removes the rest.
type BackupCleaner struct {
	store    store.DocumentBackupStore
	keep     int
	schedule string
	timeout  time.Duration
}

// NewBackupCleaner creates a new BackupCleaner instance.
func NewBackupCleaner(store store.DocumentBackupStore, keep int, schedule string) *BackupCleaner {
	return &BackupCleaner{
		store:    store,
		keep:     keep,
		schedule: schedule,
		timeout:  time.Minute,
	}
}

func (c *BackupCleaner) Name() string {
	return "backup_cleaner"
}

func (c *BackupCleaner) Schedule() string {
	return c.schedule
}

func (c *BackupCleaner) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if _, err := c.Clean(ctx); err != nil {
		logrus.Errorf("error cleaning document backups: %v", err)
	}
}

// Clean prunes the backups once and returns how many were removed.
func (c *BackupCleaner) Clean(ctx context.Context) (int64, error) {
	if c.keep < 0 {
		return 0, nil
	}

	deleted, err := c.store.PruneDocumentBackups(ctx, c.keep)
	if err != nil {
		return deleted, err
	}

	if deleted > 0 {
		logrus.Infof("removed %d document backups, keeping %d per document", deleted, c.keep)
	}

	return deleted, nil
}
