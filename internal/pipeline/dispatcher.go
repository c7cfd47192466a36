package pipeline

import (
	"context"
	"errors"
	"sync"

	"affiliate-registration/internal/common/config"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/common/metrics"
	"affiliate-registration/internal/models"
)

var (
	ErrQueueFull         = errors.New("delivery queue is full")
	ErrDispatcherStopped = errors.New("dispatcher is stopped")
)

// JobFunc runs one delivery job. Service.RunJob is the production JobFunc.
type JobFunc func(ctx context.Context, job *models.DeliveryJob) DeliveryReport

// Dispatcher hands delivery jobs to background workers.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *models.DeliveryJob) error
	Start(ctx context.Context, run JobFunc)
	// Stop refuses new jobs and waits for in-flight ones until ctx is done.
	Stop(ctx context.Context) error
	Pending(ctx context.Context) (int64, error)
	Name() string
}

// LocalDispatcher is an in-process bounded queue. Jobs still queued when
// the process dies are lost.
type LocalDispatcher struct {
	jobs    chan *models.DeliveryJob
	workers int
	logger  logger.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

func NewLocalDispatcher(workers, queueSize int, log logger.Logger) *LocalDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &LocalDispatcher{
		jobs:    make(chan *models.DeliveryJob, queueSize),
		workers: workers,
		logger:  log.WithFields(map[string]interface{}{"component": "dispatcher", "queue": config.QueueMemory}),
	}
}

func (d *LocalDispatcher) Name() string { return config.QueueMemory }

// Dispatch never blocks; a full queue is reported as ErrQueueFull.
func (d *LocalDispatcher) Dispatch(_ context.Context, job *models.DeliveryJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.jobs <- job:
		metrics.DeliveryQueueDepth.WithLabelValues(d.Name()).Set(float64(len(d.jobs)))
		return nil
	default:
		metrics.DeliveryJobsTotal.WithLabelValues(d.Name(), "rejected").Inc()
		return ErrQueueFull
	}
}

func (d *LocalDispatcher) Start(ctx context.Context, run JobFunc) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for job := range d.jobs {
				metrics.DeliveryQueueDepth.WithLabelValues(d.Name()).Set(float64(len(d.jobs)))
				runJob(ctx, d.Name(), job, run, d.logger)
			}
		}()
	}
	d.logger.Info("dispatcher started", map[string]interface{}{"workers": d.workers})
}

func (d *LocalDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobs)
	}
	d.mu.Unlock()

	return waitGroup(ctx, &d.wg)
}

func (d *LocalDispatcher) Pending(context.Context) (int64, error) {
	return int64(len(d.jobs)), nil
}

func runJob(ctx context.Context, queue string, job *models.DeliveryJob, run JobFunc, log logger.Logger) {
	metrics.DeliveryJobsActive.Inc()
	defer metrics.DeliveryJobsActive.Dec()

	defer func() {
		if r := recover(); r != nil {
			metrics.DeliveryJobsTotal.WithLabelValues(queue, "panicked").Inc()
			log.Error("delivery job panicked", map[string]interface{}{
				"jobId": job.ID,
				"panic": r,
			})
		}
	}()

	report := run(ctx, job)
	status := "delivered"
	if !report.Relay.Succeeded() && report.BackupErr != nil {
		// neither the spreadsheet nor the operator received the data
		status = "lost"
	}
	metrics.DeliveryJobsTotal.WithLabelValues(queue, status).Inc()
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
