package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/lysyi3m/quickwatch/app/domain"
)

const (
	// DefaultFormat prefers a single mp4 file with audio and video and
	// falls back to the best combined stream of any container.
	DefaultFormat = "best[ext=mp4]/best"

	outputTemplate = "%(id)s.%(ext)s"
)

// File is a downloaded media file. Name is derived from the video id, so
// fetching the same link again overwrites the same file.
type File struct {
	Path string `json:"path"`
	Name string `json:"file_name"`
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*File, error)
}

var _ Fetcher = (*YTDLP)(nil)

// runFunc downloads url and returns the path of the written file.
type runFunc func(ctx context.Context, url string) (string, error)

type YTDLP struct {
	downloadDir string
	format      string
	maxRetries  int
	retryDelay  time.Duration
	executable  string
	run         runFunc
}

func NewYTDLP(downloadDir, format string) *YTDLP {
	if format == "" {
		format = DefaultFormat
	}
	y := &YTDLP{
		downloadDir: downloadDir,
		format:      format,
		maxRetries:  1,
		retryDelay:  2 * time.Second,
	}
	y.run = y.runCommand
	return y
}

func (y *YTDLP) DownloadDir() string {
	return y.downloadDir
}

// Fetch downloads url into the download directory, retrying once.
func (y *YTDLP) Fetch(ctx context.Context, url string) (*File, error) {
	if err := os.MkdirAll(y.downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	started := time.Now()

	var lastErr error
	for attempt := 0; attempt <= y.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(y.retryDelay):
			case <-ctx.Done():
				return nil, domain.Collaborator("media fetcher", "fetch", ctx.Err())
			}
			slog.Debug("Retrying media download", "url", url, "attempt", attempt+1)
		}

		path, err := y.run(ctx, url)
		if err == nil {
			file := &File{Path: path, Name: filepath.Base(path)}
			slog.Info("Media downloaded", "url", url, "file", file.Name, "duration", time.Since(started))
			return file, nil
		}

		lastErr = err
		slog.Warn("Media download attempt failed", "url", url, "attempt", attempt+1, "error", err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, domain.Collaborator("media fetcher", "fetch", lastErr)
}

func (y *YTDLP) runCommand(ctx context.Context, url string) (string, error) {
	dl := ytdlp.New().
		Format(y.format).
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		NoProgress().
		PrintJSON().
		Output(filepath.Join(y.downloadDir, outputTemplate))
	if y.executable != "" {
		dl.SetExecutable(y.executable)
	}

	started := time.Now()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return "", err
	}

	info, err := result.GetExtractedInfo()
	if err != nil {
		return "", fmt.Errorf("failed to read download info: %w", err)
	}
	for _, entry := range info {
		if entry.Filename != nil && *entry.Filename != "" {
			return *entry.Filename, nil
		}
		if entry.AltFilename != nil && *entry.AltFilename != "" {
			return *entry.AltFilename, nil
		}
	}

	// yt-dlp printed no usable info; pick up the file it wrote.
	path, err := newestSince(y.downloadDir, started)
	if err != nil {
		return "", err
	}
	slog.Debug("Download info missing file name, using newest file", "url", url, "file", path)
	return path, nil
}

func newestSince(dir string, since time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list download directory: %w", err)
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".part") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().Before(since.Add(-time.Second)) || fi.ModTime().Before(newestMod) {
			continue
		}
		newest, newestMod = filepath.Join(dir, entry.Name()), fi.ModTime()
	}

	if newest == "" {
		return "", fmt.Errorf("yt-dlp reported no output file")
	}
	return newest, nil
}

// Resolve maps a file name returned by Fetch back to its path. Names with
// path components are rejected.
func (y *YTDLP) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", &domain.ValidationError{Field: "file_name", Value: name, Reason: "must be a plain file name"}
	}

	path := filepath.Join(y.downloadDir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("download %s: %w", name, domain.ErrNotFound)
		}
		return "", err
	}

	return path, nil
}
