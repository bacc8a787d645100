package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type JobType string

const (
	JobTypeTokenCleanup JobType = "token_cleanup"
	JobTypeTaskReminder JobType = "task_reminder"
)

const (
	QueueDefault = "queue:default"
	QueueRetry   = "queue:retry"
	QueueDead    = "queue:dead"
)

// Upper bound on how long a loop parks waiting for a pending job, so Stop
// and newly due jobs on other queues are noticed promptly.
const maxParkInterval = time.Second

// Payload key carrying the repeat interval of a recurring job.
const payloadIntervalSeconds = "interval_seconds"

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

// Worker consumes jobs from Redis lists and dispatches them to registered
// handlers. Failed jobs are retried with exponential backoff and parked on
// the dead queue once MaxTries is exhausted.
type Worker struct {
	client   *redis.Client
	logger   *zap.Logger
	handlers map[JobType]JobHandler
	queues   []string
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type Config struct {
	RedisClient *redis.Client
	Logger      *zap.Logger
	Queues      []string
}

func NewWorker(cfg Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	queues := cfg.Queues
	if len(queues) == 0 {
		queues = []string{QueueDefault, QueueRetry}
	}

	return &Worker{
		client:   cfg.RedisClient,
		logger:   cfg.Logger,
		handlers: make(map[JobType]JobHandler),
		queues:   queues,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(concurrency int) {
	w.logger.Info("starting worker", zap.Int("concurrency", concurrency))

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.loop()
	}
}

func (w *Worker) Stop() {
	w.logger.Info("stopping worker")
	w.cancel()
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if err := w.processNext(); err != nil {
				w.logger.Error("job processing failed", zap.Error(err))
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) processNext() error {
	result, err := w.client.BLPop(w.ctx, 5*time.Second, w.queues...).Result()
	if err != nil {
		if err == redis.Nil || w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue := result[0]
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	// Not due yet: put it back and park until it is, so a pending job does
	// not turn the loop into a hot BLPop/RPush cycle.
	if wait := time.Until(job.ProcessAt); wait > 0 {
		if err := w.enqueue(queue, &job); err != nil {
			return err
		}
		if wait > maxParkInterval {
			wait = maxParkInterval
		}
		select {
		case <-w.ctx.Done():
		case <-time.After(wait):
		}
		return nil
	}

	return w.execute(&job)
}

func (w *Worker) execute(job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no handler registered for job type: %s", job.Type)
	}

	w.logger.Debug("processing job",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)))

	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	if err := handler(ctx, job); err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			w.logger.Warn("job failed, retrying",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempts),
				zap.Int("max_tries", job.MaxTries),
				zap.Error(err))
			return w.retry(job)
		}

		w.logger.Error("job failed permanently",
			zap.String("job_id", job.ID),
			zap.Int("attempts", job.Attempts),
			zap.Error(err))
		return w.moveToDeadQueue(job, err)
	}

	w.logger.Debug("job completed", zap.String("job_id", job.ID))

	// A successful recurring job schedules its own next run.
	if interval := job.recurInterval(); interval > 0 {
		job.Attempts = 0
		job.ProcessAt = time.Now().Add(interval)
		return w.enqueue(QueueDefault, job)
	}
	return nil
}

// recurInterval reports how long after a successful run the job should run
// again, or zero for one-shot jobs. JSON numbers decode as float64, but the
// producer-side value before marshalling is also accepted.
func (j *Job) recurInterval() time.Duration {
	v, ok := j.Payload[payloadIntervalSeconds]
	if !ok {
		return 0
	}

	var secs float64
	switch n := v.(type) {
	case float64:
		secs = n
	case int:
		secs = float64(n)
	case int64:
		secs = float64(n)
	default:
		return 0
	}
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func (w *Worker) retry(job *Job) error {
	delay := time.Duration(1<<job.Attempts) * time.Minute
	job.ProcessAt = time.Now().Add(delay)

	return w.enqueue(QueueRetry, job)
}

func (w *Worker) enqueue(queue string, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return w.client.RPush(w.ctx, queue, jobData).Err()
}

func (w *Worker) moveToDeadQueue(job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(w.ctx, QueueDead, deadJobData).Err()
}

// JobQueue is the producer side of the worker queues.
type JobQueue struct {
	client *redis.Client
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client}
}

func (q *JobQueue) Enqueue(queue string, jobType JobType, payload map[string]interface{}) error {
	return q.EnqueueAt(queue, jobType, payload, time.Now())
}

func (q *JobQueue) EnqueueAt(queue string, jobType JobType, payload map[string]interface{}, processAt time.Time) error {
	job := &Job{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Type:      jobType,
		Payload:   payload,
		Attempts:  0,
		MaxTries:  3,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return q.client.RPush(ctx, queue, jobData).Err()
}

func (q *JobQueue) QueueSize(queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queue).Result()
}
