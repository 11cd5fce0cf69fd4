package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/config"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/pkg/logger"
)

// RefreshWorker consumes dashboard refresh tasks from the Redis queue.
// Only started when Redis is enabled; the local queue needs no worker.
type RefreshWorker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *RefreshTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewRefreshWorker creates a new worker instance
func NewRefreshWorker(cfg *config.RedisConfig) *RefreshWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Infof("[RefreshWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &RefreshWorker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function that performs a refresh
func (w *RefreshWorker) SetProcessor(processor func(context.Context, *RefreshTask) error) {
	w.processor = processor
}

// Start begins consuming refresh tasks
func (w *RefreshWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeDashboardRefresh, w.handleRefreshTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[RefreshWorker] Starting refresh worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Infof("[RefreshWorker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *RefreshWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[RefreshWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[RefreshWorker] Shutdown complete")
}

// handleRefreshTask processes a single refresh task
func (w *RefreshWorker) handleRefreshTask(ctx context.Context, t *asynq.Task) error {
	var task RefreshTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Infof("[RefreshWorker] Failed to unmarshal task: %v", err)
		return err
	}

	logger.Infof("[RefreshWorker] Processing refresh: group=%d, window=%s..%s, locale=%s",
		task.GroupID, task.From, task.To, task.Locale)

	if w.processor == nil {
		logger.Infof("[RefreshWorker] Warning: no processor set")
		return nil
	}

	return w.processor(ctx, &task)
}

// Global worker instance
var (
	globalRefreshWorker *RefreshWorker
	refreshWorkerOnce   sync.Once
)

// InitRefreshWorker initializes the global refresh worker
func InitRefreshWorker(cfg *config.RedisConfig) *RefreshWorker {
	refreshWorkerOnce.Do(func() {
		globalRefreshWorker = NewRefreshWorker(cfg)
	})
	return globalRefreshWorker
}

// GetRefreshWorker returns the global refresh worker instance
func GetRefreshWorker() *RefreshWorker {
	return globalRefreshWorker
}
