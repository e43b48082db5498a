package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

type Job interface {
	Name() string
	Run()
}

type CronJob interface {
	Schedule() string
	Job
}

// TaskExecutor runs cron jobs on their schedule and plain jobs every second.
// A job is never run concurrently with itself; a tick that finds the previous
// run still going is skipped.
type TaskExecutor struct {
	cron        *cron.Cron
	jobs        []Job
	cronJobs    []CronJob
	runningJobs mapset.Set[string]
	mu          sync.Mutex
}

func NewTaskExecutor(jobs []Job, cronJobs []CronJob) *TaskExecutor {
	return &TaskExecutor{
		cron:        cron.New(),
		jobs:        jobs,
		cronJobs:    cronJobs,
		runningJobs: mapset.NewThreadUnsafeSet[string](),
	}
}

// Run schedules every job and starts the cron in its own goroutine.
func (t *TaskExecutor) Run() error {
	for _, job := range t.cronJobs {
		if err := t.cron.AddFunc(job.Schedule(), t.wrap(job)); err != nil {
			logrus.Errorf("failed to add task %s to cron: %v", job.Name(), err)
			return err
		}
	}

	for _, job := range t.jobs {
		if err := t.cron.AddFunc("@every 1s", t.wrap(job)); err != nil {
			logrus.Errorf("failed to add task %s to cron: %v", job.Name(), err)
			return err
		}
	}

	t.cron.Start()
	return nil
}

func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all tasks")
	t.cron.Stop()
}

func (t *TaskExecutor) wrap(job Job) func() {
	return func() {
		t.mu.Lock()
		if !t.runningJobs.Add(job.Name()) {
			t.mu.Unlock()
			logrus.Warnf("task %s is already running", job.Name())
			return
		}
		t.mu.Unlock()

		defer func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.runningJobs.Remove(job.Name())
		}()

		job.Run()
	}
}
