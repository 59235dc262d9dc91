package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type RefreshLiveFeedTask struct {
	Task
	liveFeed LiveFeedRefresher
}

func NewRefreshLiveFeedTask(liveFeed LiveFeedRefresher) *RefreshLiveFeedTask {
	return &RefreshLiveFeedTask{
		Task:     NewTask(TaskTypeRefreshLiveFeed, "live"),
		liveFeed: liveFeed,
	}
}

func (t *RefreshLiveFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.liveFeed.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh live feed: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshLiveFeed",
		"duration", t.GetDuration())

	return nil
}
