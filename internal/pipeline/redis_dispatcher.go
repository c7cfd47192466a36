package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"affiliate-registration/internal/common/config"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/common/metrics"
	"affiliate-registration/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisDispatcher queues jobs on a Redis list so they survive a restart of
// the process that accepted the registration. Producers LPUSH, workers
// BRPOP.
type RedisDispatcher struct {
	client       *redis.Client
	key          string
	workers      int
	pollInterval time.Duration
	logger       logger.Logger

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRedisDispatcher(client *redis.Client, key string, workers int, pollInterval time.Duration, log logger.Logger) *RedisDispatcher {
	if workers < 1 {
		workers = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &RedisDispatcher{
		client:       client,
		key:          key,
		workers:      workers,
		pollInterval: pollInterval,
		logger:       log.WithFields(map[string]interface{}{"component": "dispatcher", "queue": config.QueueRedis}),
	}
}

func (d *RedisDispatcher) Name() string { return config.QueueRedis }

func (d *RedisDispatcher) Dispatch(ctx context.Context, job *models.DeliveryJob) error {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return ErrDispatcherStopped
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := d.client.LPush(ctx, d.key, data).Err(); err != nil {
		metrics.DeliveryJobsTotal.WithLabelValues(d.Name(), "rejected").Inc()
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return nil
}

func (d *RedisDispatcher) Start(ctx context.Context, run JobFunc) {
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.poll(ctx, run)
		}()
	}
	d.logger.Info("dispatcher started", map[string]interface{}{
		"workers": d.workers,
		"key":     d.key,
	})
}

func (d *RedisDispatcher) poll(ctx context.Context, run JobFunc) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := d.next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Error("dequeue failed", map[string]interface{}{"error": err})
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.pollInterval):
			}
			continue
		}
		if job == nil {
			continue
		}

		// a running job finishes even when the dispatcher is stopping
		runJob(context.WithoutCancel(ctx), d.Name(), job, run, d.logger)
	}
}

// next blocks up to the poll interval and returns nil when nothing arrived.
func (d *RedisDispatcher) next(ctx context.Context) (*models.DeliveryJob, error) {
	values, err := d.client.BRPop(ctx, d.pollInterval, d.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// BRPOP answers [key, value]
	var job models.DeliveryJob
	if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
		d.logger.Error("dropping malformed job", map[string]interface{}{
			"error": err,
			"raw":   values[1],
		})
		metrics.DeliveryJobsTotal.WithLabelValues(d.Name(), "malformed").Inc()
		return nil, nil
	}
	return &job, nil
}

func (d *RedisDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()

	return waitGroup(ctx, &d.wg)
}

func (d *RedisDispatcher) Pending(ctx context.Context) (int64, error) {
	return d.client.LLen(ctx, d.key).Result()
}
