package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sidehub/sidehub/app/database"
	"github.com/sidehub/sidehub/app/source"
)

// SyncSourceConfigTask registers a configured source in the database,
// picking up URL changes from the configuration file.
type SyncSourceConfigTask struct {
	Task
	Config     *source.Config
	sourceRepo database.SourceRepository
}

func NewSyncSourceConfigTask(sourceName string, config *source.Config, sourceRepo database.SourceRepository) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:       NewTask(TaskTypeSyncSourceConfig, sourceName),
		Config:     config,
		sourceRepo: sourceRepo,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.sourceRepo.UpsertSource(t.SourceName, t.Config.URL); err != nil {
		return fmt.Errorf("failed to register source: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSourceConfig",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"url", t.Config.URL)

	return nil
}
