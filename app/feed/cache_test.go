package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/lysyi3m/quickwatch/app/domain"
)

type stubSource struct {
	calls   int
	records []domain.VideoRecord
	err     error
}

func (s *stubSource) Records(ctx context.Context) ([]domain.VideoRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func TestCacheFetchesOnce(t *testing.T) {
	source := &stubSource{records: []domain.VideoRecord{{Link: "https://x/1"}}}
	cache := NewCache(source)

	for i := 0; i < 3; i++ {
		records, err := cache.Records(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(records))
		}
	}
	if source.calls != 1 {
		t.Errorf("Expected a single fetch, got %d", source.calls)
	}
	if cache.FetchedAt().IsZero() {
		t.Error("Expected fetch time to be recorded")
	}
}

func TestCacheRefreshKeepsSnapshotOnFailure(t *testing.T) {
	source := &stubSource{records: []domain.VideoRecord{{Link: "https://x/1"}}}
	cache := NewCache(source)

	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	source.err = domain.Collaborator("live feed", "fetch", errors.New("offline"))
	if err := cache.Refresh(context.Background()); !errors.Is(err, domain.ErrCollaborator) {
		t.Errorf("Expected collaborator error, got %v", err)
	}

	records, err := cache.Records(context.Background())
	if err != nil {
		t.Fatalf("Expected cached snapshot, got error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected previous snapshot to survive, got %d records", len(records))
	}
}

func TestCacheFirstFetchFailure(t *testing.T) {
	cache := NewCache(&stubSource{err: errors.New("offline")})
	if _, err := cache.Records(context.Background()); err == nil {
		t.Error("Expected error when nothing has been fetched yet")
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	cache := NewCache(&stubSource{records: []domain.VideoRecord{{Title: "A", Link: "https://x/1"}}})

	records, _ := cache.Records(context.Background())
	records[0].Title = "mutated"

	again, _ := cache.Records(context.Background())
	if again[0].Title != "A" {
		t.Error("Expected cache to hand out copies")
	}
}
