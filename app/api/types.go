package api

import (
	"context"
	"time"

	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/lysyi3m/quickwatch/app/feed"
	"github.com/lysyi3m/quickwatch/app/sources"
	"github.com/lysyi3m/quickwatch/app/tasks"
)

type GeneratorInterface interface {
	Run(records []domain.VideoRecord) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// LiveFeed is implemented by feed.Cache.
type LiveFeed interface {
	Refresh(ctx context.Context) error
	FetchedAt() time.Time
}

// ArchiveRegistry is implemented by sources.Registry.
type ArchiveRegistry interface {
	Get(name string) (*sources.Archive, error)
	List() []*sources.Archive
}

// DownloadFiles is implemented by media.YTDLP.
type DownloadFiles interface {
	Resolve(name string) (string, error)
}

type Handler struct {
	controller   Controller
	liveFeed     LiveFeed
	archives     ArchiveRegistry
	files        DownloadFiles
	generator    GeneratorInterface
	scheduler    tasks.TaskSchedulerInterface
	bootstrapper tasks.ArchiveBootstrapper
	metrics      *Metrics
}

type exclusionRequest struct {
	Link        string `json:"link" binding:"required"`
	Title       string `json:"title"`
	ChannelName string `json:"channel_name"`
	PublishDate string `json:"publish_date"`
	ID          string `json:"id"`
}

type downloadRequest struct {
	Link    string `json:"link" binding:"required"`
	MovieID string `json:"movie_id"`
}
