package bootstrap

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lysyi3m/quickwatch/app/domain"
)

const (
	defaultTimeout = 5 * time.Minute
	maxEntrySize   = 2 << 30
)

// Bootstrapper fetches a zipped archive and unpacks it next to the archive
// path, but only when that path does not exist yet.
type Bootstrapper struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewBootstrapper(httpClient *http.Client, userAgent string) *Bootstrapper {
	return &Bootstrapper{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    defaultTimeout,
	}
}

// Ensure makes sure path exists, downloading url when it does not. It
// reports whether a download happened.
func (b *Bootstrapper) Ensure(ctx context.Context, path, url string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if url == "" {
		return false, fmt.Errorf("archive %s has no bootstrap url: %w", path, domain.ErrNotFound)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	started := time.Now()

	zipPath, err := b.fetch(ctx, url, dir)
	if err != nil {
		return false, domain.Collaborator("bootstrap", "fetch "+url, err)
	}
	defer os.Remove(zipPath)

	extracted, err := extract(zipPath, dir)
	if err != nil {
		return false, fmt.Errorf("failed to extract %s: %w", url, err)
	}

	if _, err := os.Stat(path); err != nil {
		return true, fmt.Errorf("zip from %s did not contain %s: %w", url, filepath.Base(path), domain.ErrNotFound)
	}

	slog.Info("Archive bootstrapped", "path", path, "url", url, "files", extracted, "duration", time.Since(started))
	return true, nil
}

func (b *Bootstrapper) fetch(ctx context.Context, url, dir string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", b.userAgent)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch zip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, "bootstrap-*.zip")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

// extract unpacks every regular file into dir. Entries that would land
// outside dir are rejected.
func extract(zipPath, dir string) (int, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name, "__MACOSX/") {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(entry.Name))
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return count, fmt.Errorf("zip entry %q escapes target directory", entry.Name)
		}

		if err := extractFile(entry, target); err != nil {
			return count, fmt.Errorf("entry %s: %w", entry.Name, err)
		}
		count++
	}

	return count, nil
}

func extractFile(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, io.LimitReader(src, maxEntrySize)); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
