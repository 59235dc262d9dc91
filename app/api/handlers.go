package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/quickwatch/app/catalog"
	"github.com/lysyi3m/quickwatch/app/curation"
	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/lysyi3m/quickwatch/app/download"
	"github.com/lysyi3m/quickwatch/app/exclusion"
	"github.com/lysyi3m/quickwatch/app/feed"
	"github.com/lysyi3m/quickwatch/app/tasks"
)

// Controller is the part of curation.Controller the handlers use.
type Controller interface {
	LiveFeedView(ctx context.Context) ([]domain.VideoRecord, error)
	Excluded(ctx context.Context) ([]domain.VideoRecord, error)
	MarkNotRelevant(ctx context.Context, record domain.VideoRecord) (*exclusion.Snapshot, bool, error)
	MarkNotRelevantByLink(ctx context.Context, link string) (*exclusion.Snapshot, bool, error)
	ArchiveView(ctx context.Context, state curation.ViewState) (*curation.ArchivePage, error)
	Channels(ctx context.Context, name string) ([]string, error)
	Download(ctx context.Context, link, movieID string) (*download.Result, error)
}

var _ Controller = (*curation.Controller)(nil)

const dateLayout = "2006-01-02"

func NewHandler(controller Controller, liveFeed LiveFeed, archives ArchiveRegistry, files DownloadFiles,
	scheduler tasks.TaskSchedulerInterface, bootstrapper tasks.ArchiveBootstrapper, metrics *Metrics) *Handler {
	return &Handler{
		controller:   controller,
		liveFeed:     liveFeed,
		archives:     archives,
		files:        files,
		generator:    feed.NewGenerator(),
		scheduler:    scheduler,
		bootstrapper: bootstrapper,
		metrics:      metrics,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	records, err := h.controller.LiveFeedView(c.Request.Context())
	if err != nil {
		slog.Error("Live feed view failed", "error", err)
		c.Status(statusFor(err))
		return
	}

	rss, err := h.generator.Run(records)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(records)))
	if fetchedAt := h.liveFeed.FetchedAt(); !fetchedAt.IsZero() {
		c.Header("X-Last-Updated", fetchedAt.Format(time.RFC3339))
	}

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"archives":  len(h.archives.List()),
	}

	if fetchedAt := h.liveFeed.FetchedAt(); !fetchedAt.IsZero() {
		health["live_feed_fetched_at"] = fetchedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIGetLive(c *gin.Context) {
	records, err := h.controller.LiveFeedView(c.Request.Context())
	if err != nil {
		respondError(c, "live_feed_view", err)
		return
	}

	response := gin.H{
		"items": records,
		"total": len(records),
	}
	if fetchedAt := h.liveFeed.FetchedAt(); !fetchedAt.IsZero() {
		response["fetched_at"] = fetchedAt
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIRefreshLive(c *gin.Context) {
	if err := h.liveFeed.Refresh(c.Request.Context()); err != nil {
		respondError(c, "refresh_live_feed", domain.Collaborator("live feed", "refresh", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Live feed refreshed",
		"fetched_at": h.liveFeed.FetchedAt(),
	})
}

func (h *Handler) APIListExclusions(c *gin.Context) {
	records, err := h.controller.Excluded(c.Request.Context())
	if err != nil {
		respondError(c, "list_exclusions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": records,
		"total": len(records),
	})
}

func (h *Handler) APIAddExclusion(c *gin.Context) {
	var req exclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()

	var snapshot *exclusion.Snapshot
	var added bool
	var err error
	if req.Title != "" {
		record := domain.VideoRecord{
			ID:          req.ID,
			Title:       req.Title,
			ChannelName: req.ChannelName,
			Link:        req.Link,
		}
		if published, ok := catalog.ParseDate(req.PublishDate); ok {
			record.PublishedAt = &published
		}
		snapshot, added, err = h.controller.MarkNotRelevant(ctx, record)
	} else {
		snapshot, added, err = h.controller.MarkNotRelevantByLink(ctx, req.Link)
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			h.metrics.ExclusionConflicts.Inc()
		}
		respondError(c, "add_exclusion", err)
		return
	}

	if added {
		h.metrics.ExclusionsAdded.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"link":     req.Link,
		"added":    added,
		"excluded": snapshot.Len(),
	})
}

func (h *Handler) APIListArchives(c *gin.Context) {
	archives := h.archives.List()

	c.JSON(http.StatusOK, gin.H{
		"archives": archives,
		"total":    len(archives),
	})
}

func (h *Handler) APIGetArchive(c *gin.Context) {
	state, err := parseViewState(c)
	if err != nil {
		respondError(c, "archive_view", err)
		return
	}

	view, err := h.controller.ArchiveView(c.Request.Context(), state)
	if err != nil {
		respondError(c, "archive_view", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) APIGetArchiveChannels(c *gin.Context) {
	name := c.Param("name")

	channels, err := h.controller.Channels(c.Request.Context(), name)
	if err != nil {
		respondError(c, "archive_channels", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"archive":  name,
		"channels": append([]string{domain.AllChannels}, channels...),
	})
}

func (h *Handler) APIBootstrapArchive(c *gin.Context) {
	name := c.Param("name")

	archive, err := h.archives.Get(name)
	if err != nil {
		respondError(c, "bootstrap_archive", err)
		return
	}

	task := tasks.NewBootstrapArchiveTask(archive, h.bootstrapper)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing bootstrap task", "archive", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue bootstrap task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) APIDownload(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, err := h.controller.Download(c.Request.Context(), req.Link, req.MovieID)
	if err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			h.metrics.Downloads.WithLabelValues("failed").Inc()
		}
		respondError(c, "download", err)
		return
	}

	h.metrics.Downloads.WithLabelValues("ok").Inc()

	response := gin.H{
		"success":      true,
		"file_name":    result.File.Name,
		"download_url": "/api/downloads/" + result.File.Name,
		"movie_id":     result.MovieID,
		"recorded":     result.Recorded,
	}

	switch {
	case result.LedgerError == nil:
		h.metrics.LedgerWrites.WithLabelValues("ok").Inc()
	case errors.Is(result.LedgerError, domain.ErrAlreadyRecorded):
		h.metrics.LedgerWrites.WithLabelValues("duplicate").Inc()
		response["warning"] = result.LedgerError.Error()
	default:
		h.metrics.LedgerWrites.WithLabelValues("failed").Inc()
		response["warning"] = "Failed to save Movie ID: " + result.LedgerError.Error()
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIGetDownloadFile(c *gin.Context) {
	name := c.Param("file")

	path, err := h.files.Resolve(name)
	if err != nil {
		respondError(c, "download_file", err)
		return
	}

	c.FileAttachment(path, name)
}

func parseViewState(c *gin.Context) (curation.ViewState, error) {
	state := curation.ViewState{
		Archive: c.Param("name"),
		Page:    1,
		Query: domain.FilterQuery{
			SearchText: strings.TrimSpace(c.Query("q")),
			Channel:    c.DefaultQuery("channel", domain.AllChannels),
		},
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return state, &domain.ValidationError{Field: "page", Value: raw, Reason: "must be a number"}
		}
		state.Page = page
	}

	for _, bound := range []struct {
		param string
		dest  **time.Time
	}{
		{"from", &state.Query.From},
		{"to", &state.Query.To},
	} {
		raw := c.Query(bound.param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return state, &domain.ValidationError{Field: bound.param, Value: raw, Reason: "expected YYYY-MM-DD"}
		}
		*bound.dest = &t
	}

	return state, nil
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyRecorded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCollaborator):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrIngest):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, operation string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "error", err)
	} else {
		slog.Warn("Request rejected", "operation", operation, "status", status, "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
