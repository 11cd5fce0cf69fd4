package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/config"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/pkg/logger"
)

const (
	TaskTypeDashboardRefresh = "dashboard:refresh"
)

// RefreshTask identifies one cached dashboard to recompute.
type RefreshTask struct {
	GroupID uint   `json:"group_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Locale  string `json:"locale"`
}

// RefreshQueue hands stale-dashboard recomputations to a background
// executor.
type RefreshQueue interface {
	// Enqueue schedules one refresh
	Enqueue(task *RefreshTask) error
	// IsAsync returns true if tasks go through Redis
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global refresh queue instance
var (
	globalRefreshQueue RefreshQueue
	refreshQueueOnce   sync.Once
)

// InitRefreshQueue initializes the global refresh queue based on config.
// With Redis enabled tasks go through asynq; otherwise a local goroutine
// queue keeps stale-while-revalidate working in single-process deployments.
func InitRefreshQueue(cfg *config.Config) RefreshQueue {
	refreshQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncRefreshQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[RefreshQueue] Redis unavailable, falling back to local mode: %v", err)
				globalRefreshQueue = NewLocalRefreshQueue()
			} else {
				logger.Infof("[RefreshQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalRefreshQueue = queue
			}
		} else {
			logger.Infof("[RefreshQueue] Local queue initialized (Redis disabled)")
			globalRefreshQueue = NewLocalRefreshQueue()
		}
	})
	return globalRefreshQueue
}

// GetRefreshQueue returns the global refresh queue instance
func GetRefreshQueue() RefreshQueue {
	return globalRefreshQueue
}

// AsyncRefreshQueue implements RefreshQueue using asynq (Redis-based)
type AsyncRefreshQueue struct {
	client *asynq.Client
}

// NewAsyncRefreshQueue creates a new Redis-based refresh queue
func NewAsyncRefreshQueue(cfg *config.RedisConfig) (*AsyncRefreshQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncRefreshQueue{client: client}, nil
}

// Enqueue adds a refresh task to the async queue
func (q *AsyncRefreshQueue) Enqueue(task *RefreshTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeDashboardRefresh, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(2),
	)
	if err != nil {
		return err
	}

	logger.Infof("[RefreshQueue] Task enqueued: id=%s, group=%d, window=%s..%s",
		info.ID, task.GroupID, task.From, task.To)
	return nil
}

// IsAsync returns true for the Redis-backed queue
func (q *AsyncRefreshQueue) IsAsync() bool {
	return true
}

// Close shuts down the asynq client
func (q *AsyncRefreshQueue) Close() error {
	return q.client.Close()
}

// LocalRefreshQueue implements RefreshQueue with plain goroutines. Used
// when Redis is disabled; refreshes still run off the request path.
type LocalRefreshQueue struct {
	processor func(context.Context, *RefreshTask) error
	wg        sync.WaitGroup
	mu        sync.Mutex
	closed    bool
}

func NewLocalRefreshQueue() *LocalRefreshQueue {
	return &LocalRefreshQueue{}
}

// SetProcessor sets the function that performs a refresh
func (q *LocalRefreshQueue) SetProcessor(processor func(context.Context, *RefreshTask) error) {
	q.processor = processor
}

// Enqueue runs the refresh on its own goroutine
func (q *LocalRefreshQueue) Enqueue(task *RefreshTask) error {
	q.mu.Lock()
	if q.closed || q.processor == nil {
		q.mu.Unlock()
		return nil
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Infof("[RefreshQueue] Local refresh failed: group=%d: %v", task.GroupID, err)
		}
	}()
	return nil
}

// IsAsync returns false for the local queue
func (q *LocalRefreshQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight refreshes to finish
func (q *LocalRefreshQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
	return nil
}
