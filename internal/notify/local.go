package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// DeliverFunc receives a reminder when its one-shot job fires.
type DeliverFunc func(identifier, title, body string)

// LocalScheduler is the shipped Scheduler implementation: one-shot gocron
// jobs standing in for a platform notification center. Delivery is a
// callback so the daemon can log or surface fired reminders.
type LocalScheduler struct {
	scheduler gocron.Scheduler
	deliver   DeliverFunc
	log       *logrus.Entry

	mu   sync.Mutex
	jobs map[string]gocron.Job // identifier -> job
}

// NewLocalScheduler creates a started-but-idle local scheduler. Call Start
// before scheduling and Shutdown when done.
func NewLocalScheduler(deliver DeliverFunc, log *logrus.Logger) (*LocalScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	if deliver == nil {
		deliver = func(string, string, string) {}
	}

	return &LocalScheduler{
		scheduler: scheduler,
		deliver:   deliver,
		log:       log.WithField("component", "local-scheduler"),
		jobs:      make(map[string]gocron.Job),
	}, nil
}

// Start begins executing scheduled jobs.
func (l *LocalScheduler) Start() {
	l.scheduler.Start()
}

// Shutdown stops the scheduler and drops all pending jobs.
func (l *LocalScheduler) Shutdown() error {
	return l.scheduler.Shutdown()
}

func (l *LocalScheduler) PendingRequests(context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.jobs))
	for id := range l.jobs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (l *LocalScheduler) RemoveRequests(_ context.Context, identifiers []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range identifiers {
		job, ok := l.jobs[id]
		if !ok {
			continue
		}
		if err := l.scheduler.RemoveJob(job.ID()); err != nil {
			l.log.WithError(err).WithField("identifier", id).
				Warn("removing scheduled reminder failed")
		}
		delete(l.jobs, id)
	}
	return nil
}

// AuthorizationStatus always reports authorized: a local in-process
// scheduler has no permission prompt to refuse.
func (l *LocalScheduler) AuthorizationStatus(context.Context) AuthorizationStatus {
	return StatusAuthorized
}

func (l *LocalScheduler) RequestAuthorization(context.Context) (bool, error) {
	return true, nil
}

func (l *LocalScheduler) Schedule(_ context.Context, req Request) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if old, ok := l.jobs[req.Identifier]; ok {
		_ = l.scheduler.RemoveJob(old.ID())
		delete(l.jobs, req.Identifier)
	}

	identifier := req.Identifier
	title := req.Title
	body := req.Body

	job, err := l.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(req.FireAt)),
		gocron.NewTask(func() {
			l.deliver(identifier, title, body)
			l.mu.Lock()
			delete(l.jobs, identifier)
			l.mu.Unlock()
		}),
		gocron.WithName(req.Identifier),
	)
	if err != nil {
		return fmt.Errorf("scheduling job %s: %w", req.Identifier, err)
	}

	l.jobs[req.Identifier] = job
	return nil
}
