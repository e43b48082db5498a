package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrgen/manga/internal/compress"
	"github.com/emrgen/manga/internal/store"
	"github.com/emrgen/manga/internal/tester"
)

type countingJob struct {
	runs  atomic.Int32
	block chan struct{}
}

func (c *countingJob) Name() string     { return "counting" }
func (c *countingJob) Schedule() string { return "@every 1s" }
func (c *countingJob) Run() {
	c.runs.Add(1)
	if c.block != nil {
		<-c.block
	}
}

func TestTaskExecutor_RunsCronJobs(t *testing.T) {
	job := &countingJob{}
	ex := NewTaskExecutor(nil, []CronJob{job})
	require.NoError(t, ex.Run())
	defer ex.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestTaskExecutor_SkipsOverlappingRuns(t *testing.T) {
	job := &countingJob{block: make(chan struct{})}
	ex := NewTaskExecutor([]Job{job}, nil)
	require.NoError(t, ex.Run())
	defer ex.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, 3*time.Second, 50*time.Millisecond)
	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
}

func TestTaskExecutor_BadSchedule(t *testing.T) {
	ex := NewTaskExecutor(nil, []CronJob{NewBackupCleaner(nil, 1, "not a schedule")})
	assert.Error(t, ex.Run())
}

func TestBackupCleaner_Clean(t *testing.T) {
	ctx := context.Background()
	gs := store.NewGormStore(tester.TestDB(), compress.NewNop())

	id, err := gs.CreateDocument(ctx, "books", store.Fields{"title": "v1"})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, gs.UpdateDocument(ctx, "books", id, store.Fields{"rev": i}))
	}

	cleaner := NewBackupCleaner(gs, 2, "@every 1m")
	deleted, err := cleaner.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	backups, err := gs.ListDocumentBackups(ctx, "books", id)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, int64(5), backups[0].Version)
	assert.Equal(t, int64(4), backups[1].Version)
}
