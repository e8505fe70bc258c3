package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sidehub/sidehub/app/cfg"
	"github.com/sidehub/sidehub/app/database"
	"github.com/sidehub/sidehub/app/source"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache  *source.ConfigCache
	catalogCache *source.CatalogCache
	sourceRepo   database.SourceRepository
	appRepo      database.AppRepository
	newsRepo     database.NewsRepository
	httpClient   *http.Client
	loader       *source.Loader
	newsParser   *source.NewsParser
	extractor    *source.ArticleExtractor
	userAgent    string
	interval     time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(configCache *source.ConfigCache, catalogCache *source.CatalogCache,
	sourceRepo database.SourceRepository, appRepo database.AppRepository,
	newsRepo database.NewsRepository, httpClient *http.Client, loader *source.Loader,
	newsParser *source.NewsParser, extractor *source.ArticleExtractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache:  configCache,
		catalogCache: catalogCache,
		sourceRepo:   sourceRepo,
		appRepo:      appRepo,
		newsRepo:     newsRepo,
		httpClient:   httpClient,
		loader:       loader,
		newsParser:   newsParser,
		extractor:    extractor,
		userAgent:    cfg.UserAgent,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	// The queue is closed on Stop; never race a send against it
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	configs := s.configCache.GetConfigs()
	if len(configs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Processing source configurations", "count", len(configs))

	for _, config := range configs {
		syncTask := NewSyncSourceConfigTask(config.Name, config, s.sourceRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSourceConfigTask", "source", config.Name, "error", err)
			continue
		}

		if !config.Settings.Enabled {
			slog.Debug("Source disabled, skipping RefreshSourceTask", "source", config.Name)
			continue
		}

		refreshTask := s.newRefreshTask(config)
		if err := s.EnqueueTask(refreshTask); err != nil {
			slog.Warn("Failed to enqueue RefreshSourceTask", "source", config.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	configs := s.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	slog.Debug("Processing enabled source configurations for task scheduling", "count", len(configs))

	for _, config := range configs {
		src, err := s.sourceRepo.GetSource(config.Name)
		if err != nil {
			slog.Warn("Failed to get source from database, skipping", "source", config.Name, "error", err)
			continue
		}
		if src == nil {
			slog.Warn("Source not found in database, skipping", "source", config.Name)
			continue
		}

		now := time.Now().UTC()
		if src.NextFetchAt != nil && src.NextFetchAt.After(now) {
			slog.Debug("Source not due for refresh yet", "source", config.Name, "next_fetch_at", src.NextFetchAt)
		} else {
			refreshTask := s.newRefreshTask(config)
			if err := s.EnqueueTask(refreshTask); err != nil {
				slog.Warn("Failed to enqueue RefreshSourceTask", "source", config.Name, "error", err)
			}
		}

		if config.Settings.ExtractArticles {
			extractTask := NewExtractArticlesTask(config.Name, config, s.httpClient, s.extractor, s.newsRepo, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractArticlesTask", "source", config.Name, "error", err)
			}
		}
	}
}

func (s *Scheduler) newRefreshTask(config *source.Config) *RefreshSourceTask {
	return NewRefreshSourceTask(config.Name, config, s.httpClient, s.loader, s.newsParser,
		s.sourceRepo, s.appRepo, s.newsRepo, s.catalogCache, s.userAgent)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
