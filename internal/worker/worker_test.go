package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/worker"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestJobQueue_EnqueueAndSize(t *testing.T) {
	client := setupRedis(t)
	queue := worker.NewJobQueue(client)

	require.NoError(t, queue.Enqueue(worker.QueueDefault, worker.JobTypeTokenCleanup, nil))
	require.NoError(t, queue.Enqueue(worker.QueueDefault, worker.JobTypeTaskReminder, map[string]interface{}{
		"hours_ahead": 24,
	}))

	size, err := queue.QueueSize(worker.QueueDefault)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	size, err = queue.QueueSize(worker.QueueRetry)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestWorker_ProcessesJob(t *testing.T) {
	client := setupRedis(t)
	queue := worker.NewJobQueue(client)

	var mu sync.Mutex
	processed := 0

	w := worker.NewWorker(worker.Config{
		RedisClient: client,
		Logger:      zap.NewNop(),
	})
	w.RegisterHandler(worker.JobTypeTokenCleanup, func(ctx context.Context, job *worker.Job) error {
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	})

	require.NoError(t, queue.Enqueue(worker.QueueDefault, worker.JobTypeTokenCleanup, nil))

	w.Start(1)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return processed == 1
	}, 2*time.Second, 10*time.Millisecond)
	w.Stop()
}

func TestWorker_RetriesFailedJob(t *testing.T) {
	client := setupRedis(t)
	queue := worker.NewJobQueue(client)

	w := worker.NewWorker(worker.Config{
		RedisClient: client,
		Logger:      zap.NewNop(),
		Queues:      []string{worker.QueueDefault},
	})
	w.RegisterHandler(worker.JobTypeTaskReminder, func(ctx context.Context, job *worker.Job) error {
		return context.DeadlineExceeded
	})

	require.NoError(t, queue.Enqueue(worker.QueueDefault, worker.JobTypeTaskReminder, nil))

	// Only drain the default queue so the retried job stays visible.
	w.Start(1)
	assert.Eventually(t, func() bool {
		size, err := queue.QueueSize(worker.QueueRetry)
		return err == nil && size == 1
	}, 2*time.Second, 10*time.Millisecond)
	w.Stop()
}

func setupJobDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}, &models.Token{}))
	return db
}

func TestTokenCleanupHandler(t *testing.T) {
	db := setupJobDB(t)

	userID, _ := uuid.NewV4()
	user := models.User{ID: userID, Name: "Worker User", Email: "worker@example.com", Password: "hash"}
	require.NoError(t, db.Create(&user).Error)

	expired := time.Now().Add(-time.Hour)
	live := time.Now().Add(time.Hour)
	for _, expiresAt := range []time.Time{expired, live} {
		id, _ := uuid.NewV4()
		token := models.Token{ID: id, UserID: userID, Name: "auth-token", ExpiresAt: expiresAt}
		require.NoError(t, db.Create(&token).Error)
	}

	handler := worker.TokenCleanupHandler(db, zap.NewNop())
	require.NoError(t, handler(context.Background(), &worker.Job{Type: worker.JobTypeTokenCleanup}))

	var count int64
	require.NoError(t, db.Model(&models.Token{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTaskReminderHandler(t *testing.T) {
	db := setupJobDB(t)

	userID, _ := uuid.NewV4()
	user := models.User{ID: userID, Name: "Worker User", Email: "reminder@example.com", Password: "hash"}
	require.NoError(t, db.Create(&user).Error)

	soon := time.Now().Add(2 * time.Hour)
	id, _ := uuid.NewV4()
	task := models.Task{ID: id, UserID: userID, Title: "Due soon", Status: models.TaskStatusTodo, DueDate: &soon}
	require.NoError(t, db.Create(&task).Error)

	handler := worker.TaskReminderHandler(db, zap.NewNop())
	assert.NoError(t, handler(context.Background(), &worker.Job{Type: worker.JobTypeTaskReminder}))
}

func TestScheduleRecurring(t *testing.T) {
	client := setupRedis(t)
	queue := worker.NewJobQueue(client)

	require.NoError(t, worker.ScheduleRecurring(queue, worker.JobTypeTokenCleanup, time.Hour))

	size, err := queue.QueueSize(worker.QueueDefault)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestWorker_RecurringJobRunsRepeatedly(t *testing.T) {
	client := setupRedis(t)
	queue := worker.NewJobQueue(client)

	var mu sync.Mutex
	runs := 0

	w := worker.NewWorker(worker.Config{
		RedisClient: client,
		Logger:      zap.NewNop(),
	})
	w.RegisterHandler(worker.JobTypeTokenCleanup, func(ctx context.Context, job *worker.Job) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})

	require.NoError(t, worker.ScheduleRecurring(queue, worker.JobTypeTokenCleanup, 20*time.Millisecond))

	w.Start(1)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 3
	}, 5*time.Second, 10*time.Millisecond, "recurring job should run more than once")
	w.Stop()
}
