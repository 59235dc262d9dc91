package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/lysyi3m/quickwatch/app/sources"
)

type BootstrapArchiveTask struct {
	Task
	Archive      *sources.Archive
	bootstrapper ArchiveBootstrapper
}

func NewBootstrapArchiveTask(archive *sources.Archive, bootstrapper ArchiveBootstrapper) *BootstrapArchiveTask {
	return &BootstrapArchiveTask{
		Task:         NewTask(TaskTypeBootstrapArchive, archive.Name),
		Archive:      archive,
		bootstrapper: bootstrapper,
	}
}

func (t *BootstrapArchiveTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	downloaded, err := t.bootstrapper.Ensure(ctx, t.Archive.Path, t.Archive.BootstrapURL)
	if errors.Is(err, domain.ErrNotFound) && t.Archive.BootstrapURL == "" {
		slog.Warn("Archive missing and no bootstrap url configured", "archive", t.Archive.Name, "path", t.Archive.Path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to bootstrap archive %s: %w", t.Archive.Name, err)
	}

	slog.Info("Task completed",
		"type", "BootstrapArchive",
		"archive", t.Archive.Name,
		"downloaded", downloaded,
		"duration", t.GetDuration())

	return nil
}
