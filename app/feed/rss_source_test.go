package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lysyi3m/quickwatch/app/domain"
)

func TestRSSSourceMergesFeeds(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/a":
			w.Write([]byte(youtubeFeed))
		case "/b":
			// Repeats abc123 from /a.
			w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Other</title>
<item><title>Again</title><link>https://www.youtube.com/watch?v=abc123</link></item>
<item><title>New</title><link>https://www.youtube.com/watch?v=zzz</link></item>
</channel></rss>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	source := NewRSSSource([]string{srv.URL + "/a", srv.URL + "/missing", srv.URL + "/b"}, srv.Client(), NewParser(), "QuickWatch/test")

	records, err := source.Records(context.Background())
	if err != nil {
		t.Fatalf("Expected partial failure to be tolerated, got: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 distinct records, got %d", len(records))
	}

	want := []string{
		"https://www.youtube.com/watch?v=abc123",
		"https://www.youtube.com/watch?v=def456",
		"https://www.youtube.com/watch?v=zzz",
	}
	for i, link := range want {
		if records[i].Link != link {
			t.Errorf("Position %d: expected %s, got %s", i, link, records[i].Link)
		}
	}
	if userAgent != "QuickWatch/test" {
		t.Errorf("Expected user agent to be sent, got %q", userAgent)
	}
}

func TestRSSSourceAllFeedsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	source := NewRSSSource([]string{srv.URL}, srv.Client(), NewParser(), "QuickWatch/test")

	_, err := source.Records(context.Background())
	if !errors.Is(err, domain.ErrCollaborator) {
		t.Errorf("Expected collaborator error, got %v", err)
	}
}
