package curation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/lysyi3m/quickwatch/app/catalog"
	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/lysyi3m/quickwatch/app/download"
	"github.com/lysyi3m/quickwatch/app/exclusion"
	"github.com/lysyi3m/quickwatch/app/feed"
	"github.com/lysyi3m/quickwatch/app/sources"
)

const maxMarkAttempts = 3

// Archives resolves an archive name to its definition.
type Archives interface {
	Get(name string) (*sources.Archive, error)
}

// ViewState is everything one archive request depends on.
type ViewState struct {
	Archive string
	Query   domain.FilterQuery
	Page    int
}

// ArchivePage is a filtered archive page plus the values a caller needs to
// render the filter controls. Warning is set when the view degraded to
// empty because the archive is missing or unreadable.
type ArchivePage struct {
	Archive  *sources.Archive `json:"archive"`
	Page     domain.Page      `json:"page"`
	Channels []string         `json:"channels"`
	MinDate  *time.Time       `json:"min_date,omitempty"`
	MaxDate  *time.Time       `json:"max_date,omitempty"`
	Warning  string           `json:"warning,omitempty"`
}

type Controller struct {
	live        feed.Source
	exclusions  exclusion.Store
	archives    Archives
	normalizer  *catalog.Normalizer
	filterer    *catalog.Filterer
	coordinator *download.Coordinator
}

func NewController(live feed.Source, exclusions exclusion.Store, archives Archives,
	normalizer *catalog.Normalizer, filterer *catalog.Filterer, coordinator *download.Coordinator) *Controller {
	return &Controller{
		live:        live,
		exclusions:  exclusions,
		archives:    archives,
		normalizer:  normalizer,
		filterer:    filterer,
		coordinator: coordinator,
	}
}

// Visible returns records whose link is not excluded, in source order.
func Visible(records []domain.VideoRecord, excluded *exclusion.Snapshot) []domain.VideoRecord {
	visible := make([]domain.VideoRecord, 0, len(records))
	for _, record := range records {
		if excluded.Contains(record.Link) {
			continue
		}
		visible = append(visible, record)
	}
	return visible
}

// LiveFeedView is the live feed without the records marked not relevant.
func (c *Controller) LiveFeedView(ctx context.Context) ([]domain.VideoRecord, error) {
	records, err := c.live.Records(ctx)
	if err != nil {
		return nil, domain.Collaborator("live feed", "read", err)
	}

	snapshot, err := c.exclusions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusions: %w", err)
	}

	visible := Visible(records, snapshot)
	slog.Debug("Live feed view", "total", len(records), "visible", len(visible), "excluded", snapshot.Len())
	return visible, nil
}

// Excluded lists every record marked not relevant, oldest first.
func (c *Controller) Excluded(ctx context.Context) ([]domain.VideoRecord, error) {
	snapshot, err := c.exclusions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusions: %w", err)
	}
	return snapshot.Records(), nil
}

// MarkNotRelevant adds record to the exclusion set. The read-modify-write
// is retried when another writer saved in between. The bool reports
// whether the link was newly excluded.
func (c *Controller) MarkNotRelevant(ctx context.Context, record domain.VideoRecord) (*exclusion.Snapshot, bool, error) {
	if record.Link == "" {
		return nil, false, &domain.ValidationError{Field: "link", Value: "", Reason: "required"}
	}

	var err error
	for attempt := 1; attempt <= maxMarkAttempts; attempt++ {
		var current *exclusion.Snapshot
		current, err = c.exclusions.Load(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load exclusions: %w", err)
		}

		updated := current.With(record)
		if updated == current {
			return current, false, nil
		}

		err = c.exclusions.Save(ctx, updated)
		if err == nil {
			slog.Info("Video marked not relevant", "link", record.Link, "title", record.Title, "excluded", updated.Len())
			return updated, true, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, false, fmt.Errorf("failed to save exclusions: %w", err)
		}

		slog.Warn("Exclusion write conflict, retrying", "link", record.Link, "attempt", attempt)
	}

	return nil, false, err
}

// MarkNotRelevantByLink looks the record up in the live feed first so the
// stored exclusion keeps its title and channel.
func (c *Controller) MarkNotRelevantByLink(ctx context.Context, link string) (*exclusion.Snapshot, bool, error) {
	records, err := c.live.Records(ctx)
	if err != nil {
		return nil, false, domain.Collaborator("live feed", "read", err)
	}

	for _, record := range records {
		if record.Link == link {
			return c.MarkNotRelevant(ctx, record)
		}
	}

	return nil, false, fmt.Errorf("live feed record %s: %w", link, domain.ErrNotFound)
}

// ArchiveView filters and pages one archive. A missing or unreadable
// archive gives an empty page with a warning rather than an error; only an
// unknown archive name is an error.
func (c *Controller) ArchiveView(ctx context.Context, state ViewState) (*ArchivePage, error) {
	archive, err := c.archives.Get(state.Archive)
	if err != nil {
		return nil, err
	}

	records, warning := c.loadArchive(archive)

	view := &ArchivePage{
		Archive:  archive,
		Page:     c.filterer.Run(records, state.Query, state.Page),
		Channels: catalog.Channels(records),
		Warning:  warning,
	}
	if minDay, maxDay, ok := catalog.DateBounds(records); ok {
		view.MinDate = &minDay
		view.MaxDate = &maxDay
	}

	return view, nil
}

// Channels lists the channel choices of an archive.
func (c *Controller) Channels(ctx context.Context, name string) ([]string, error) {
	archive, err := c.archives.Get(name)
	if err != nil {
		return nil, err
	}
	records, _ := c.loadArchive(archive)
	return catalog.Channels(records), nil
}

func (c *Controller) loadArchive(archive *sources.Archive) ([]domain.VideoRecord, string) {
	data, err := os.ReadFile(archive.Path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Archive not found", "archive", archive.Name, "path", archive.Path)
		return nil, fmt.Sprintf("%s CSV not found.", archive.Label)
	}
	if err != nil {
		err = &domain.IngestError{Source: archive.Path, Kind: domain.IngestUnreadable, Err: err}
		slog.Warn("Archive unreadable", "archive", archive.Name, "error", err)
		return nil, err.Error()
	}

	records, _, err := c.normalizer.Run(archive.Path, data)
	if err != nil {
		slog.Warn("Archive unreadable", "archive", archive.Name, "error", err)
		return nil, err.Error()
	}

	return records, ""
}

// Download runs the operator's download action for link.
func (c *Controller) Download(ctx context.Context, link, movieID string) (*download.Result, error) {
	return c.coordinator.DownloadAndRecord(ctx, link, movieID)
}
