package tasks

import (
	"context"
)

// TaskSchedulerInterface is what the HTTP layer needs from the scheduler.
//
//	scheduler := NewScheduler(liveFeed, bootstrapper, registry, interval, workers)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefreshLiveFeedTask(liveFeed))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// LiveFeedRefresher is implemented by feed.Cache.
type LiveFeedRefresher interface {
	Refresh(ctx context.Context) error
}

// ArchiveBootstrapper is implemented by bootstrap.Bootstrapper.
type ArchiveBootstrapper interface {
	Ensure(ctx context.Context, path, url string) (bool, error)
}
