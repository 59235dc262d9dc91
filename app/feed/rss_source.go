package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/quickwatch/app/domain"
)

const defaultFetchTimeout = 30 * time.Second

// RSSSource merges one or more RSS/Atom feeds, typically YouTube channel
// feeds, into a single live feed. Records keep per-feed order, feeds are
// visited in configuration order and a link seen twice is kept once.
type RSSSource struct {
	urls       []string
	httpClient *http.Client
	parser     *Parser
	userAgent  string
	timeout    time.Duration
}

func NewRSSSource(urls []string, httpClient *http.Client, parser *Parser, userAgent string) *RSSSource {
	return &RSSSource{
		urls:       urls,
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
		timeout:    defaultFetchTimeout,
	}
}

// Records fails only when every configured feed failed.
func (s *RSSSource) Records(ctx context.Context) ([]domain.VideoRecord, error) {
	seen := make(map[string]struct{})
	records := make([]domain.VideoRecord, 0)

	var lastErr error
	failed := 0
	for _, url := range s.urls {
		data, err := s.fetchFeed(ctx, url)
		if err == nil {
			var items []domain.VideoRecord
			items, err = s.parser.Run(data)
			if err == nil {
				for _, record := range items {
					if _, dup := seen[record.Link]; dup {
						continue
					}
					seen[record.Link] = struct{}{}
					records = append(records, record)
				}
				continue
			}
		}

		failed++
		lastErr = err
		slog.Warn("Live feed fetch failed", "url", url, "error", err)
	}

	if len(s.urls) > 0 && failed == len(s.urls) {
		return nil, domain.Collaborator("live feed", "fetch", lastErr)
	}

	return records, nil
}

func (s *RSSSource) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
