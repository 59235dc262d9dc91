package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/lysyi3m/quickwatch/app/domain"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func numberedCatalog(n int) []domain.VideoRecord {
	records := make([]domain.VideoRecord, n)
	for i := range records {
		records[i] = domain.VideoRecord{
			Title:       fmt.Sprintf("Video %d", i+1),
			ChannelName: "Channel",
			PublishedAt: day(2024, 1, 1+i%28),
			Link:        fmt.Sprintf("https://x/%d", i+1),
		}
	}
	return records
}

func TestFilterer_Pagination_25Rows(t *testing.T) {
	filterer := NewFilterer()
	records := numberedCatalog(25)

	page1 := filterer.Run(records, domain.FilterQuery{}, 1)
	if page1.TotalPages != 3 {
		t.Fatalf("Expected 3 total pages, got %d", page1.TotalPages)
	}
	if len(page1.Items) != 10 {
		t.Fatalf("Expected 10 items on page 1, got %d", len(page1.Items))
	}
	if page1.Items[0].Link != "https://x/1" || page1.Items[9].Link != "https://x/10" {
		t.Errorf("Expected rows 1-10 on page 1, got %s..%s", page1.Items[0].Link, page1.Items[9].Link)
	}

	page3 := filterer.Run(records, domain.FilterQuery{}, 3)
	if len(page3.Items) != 5 {
		t.Fatalf("Expected 5 items on page 3, got %d", len(page3.Items))
	}
	if page3.Items[0].Link != "https://x/21" || page3.Items[4].Link != "https://x/25" {
		t.Errorf("Expected rows 21-25 on page 3, got %s..%s", page3.Items[0].Link, page3.Items[4].Link)
	}
	if page3.TotalCount != 25 {
		t.Errorf("Expected total count 25, got %d", page3.TotalCount)
	}
}

func TestFilterer_PagesConcatenateToFilteredResult(t *testing.T) {
	filterer := NewFilterer()

	for _, n := range []int{0, 1, 9, 10, 11, 20, 37} {
		records := numberedCatalog(n)
		query := domain.FilterQuery{SearchText: "video"}
		filtered := filterer.Filter(records, query)

		first := filterer.Run(records, query, 1)
		wantPages := max((len(filtered)+9)/10, 1)
		if first.TotalPages != wantPages {
			t.Errorf("n=%d: expected %d pages, got %d", n, wantPages, first.TotalPages)
		}

		var all []domain.VideoRecord
		seen := make(map[string]bool)
		for p := 1; p <= first.TotalPages; p++ {
			for _, item := range filterer.Run(records, query, p).Items {
				if seen[item.Link] {
					t.Errorf("n=%d: duplicate record %s", n, item.Link)
				}
				seen[item.Link] = true
				all = append(all, item)
			}
		}

		if len(all) != len(filtered) {
			t.Fatalf("n=%d: expected %d records across pages, got %d", n, len(filtered), len(all))
		}
		for i := range all {
			if all[i].Link != filtered[i].Link {
				t.Errorf("n=%d: position %d expected %s, got %s", n, i, filtered[i].Link, all[i].Link)
			}
		}
	}
}

func TestFilterer_ClampsPageNumber(t *testing.T) {
	filterer := NewFilterer()
	records := numberedCatalog(15)

	low := filterer.Run(records, domain.FilterQuery{}, -4)
	if low.PageNumber != 1 {
		t.Errorf("Expected page clamped to 1, got %d", low.PageNumber)
	}

	high := filterer.Run(records, domain.FilterQuery{}, 99)
	if high.PageNumber != 2 {
		t.Errorf("Expected page clamped to 2, got %d", high.PageNumber)
	}
	if len(high.Items) != 5 {
		t.Errorf("Expected 5 items on last page, got %d", len(high.Items))
	}
}

func TestFilterer_EmptyResult(t *testing.T) {
	filterer := NewFilterer()

	page := filterer.Run(numberedCatalog(5), domain.FilterQuery{SearchText: "nothing matches"}, 3)
	if page.TotalPages != 1 {
		t.Errorf("Expected 1 total page for empty result, got %d", page.TotalPages)
	}
	if page.PageNumber != 1 {
		t.Errorf("Expected page 1, got %d", page.PageNumber)
	}
	if len(page.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(page.Items))
	}
}

func TestFilterer_SearchIsCaseInsensitive(t *testing.T) {
	filterer := NewFilterer()
	records := []domain.VideoRecord{
		{Title: "Cats and Dogs", ChannelName: "A", PublishedAt: day(2024, 1, 1), Link: "https://x/1"},
		{Title: "Dog Park", ChannelName: "A", PublishedAt: day(2024, 1, 2), Link: "https://x/2"},
		{Title: "", ChannelName: "A", PublishedAt: day(2024, 1, 3), Link: "https://x/3"},
	}

	for _, search := range []string{"cat", "CAT", "Cat", "cAt"} {
		filtered := filterer.Filter(records, domain.FilterQuery{SearchText: search})
		if len(filtered) != 1 || filtered[0].Title != "Cats and Dogs" {
			t.Errorf("Search %q: expected only 'Cats and Dogs', got %v", search, filtered)
		}
	}

	all := filterer.Filter(records, domain.FilterQuery{SearchText: ""})
	if len(all) != 3 {
		t.Errorf("Empty search should be a no-op, got %d records", len(all))
	}
}

func TestFilterer_ChannelPredicate(t *testing.T) {
	filterer := NewFilterer()
	records := []domain.VideoRecord{
		{Title: "One", ChannelName: "Alpha", PublishedAt: day(2024, 1, 1), Link: "https://x/1"},
		{Title: "Two", ChannelName: "Beta", PublishedAt: day(2024, 1, 2), Link: "https://x/2"},
		{Title: "Three", ChannelName: "alpha", PublishedAt: day(2024, 1, 3), Link: "https://x/3"},
	}

	alpha := filterer.Filter(records, domain.FilterQuery{Channel: "Alpha"})
	if len(alpha) != 1 || alpha[0].Link != "https://x/1" {
		t.Errorf("Expected exact channel match only, got %v", alpha)
	}

	all := filterer.Filter(records, domain.FilterQuery{Channel: domain.AllChannels})
	if len(all) != 3 {
		t.Errorf("Expected 'All' to pass everything, got %d", len(all))
	}
}

func TestFilterer_DateRangeIsInclusive(t *testing.T) {
	filterer := NewFilterer()
	records := []domain.VideoRecord{
		{Title: "Before", PublishedAt: day(2024, 1, 1), Link: "https://x/1"},
		{Title: "Start", PublishedAt: day(2024, 1, 5), Link: "https://x/2"},
		{Title: "Middle", PublishedAt: day(2024, 1, 7), Link: "https://x/3"},
		{Title: "End", PublishedAt: day(2024, 1, 10), Link: "https://x/4"},
		{Title: "After", PublishedAt: day(2024, 1, 11), Link: "https://x/5"},
		{Title: "Undated", Link: "https://x/6"},
	}

	from := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	filtered := filterer.Filter(records, domain.FilterQuery{From: &from, To: &to})

	if len(filtered) != 3 {
		t.Fatalf("Expected 3 records in range, got %d", len(filtered))
	}
	want := []string{"Start", "Middle", "End"}
	for i, title := range want {
		if filtered[i].Title != title {
			t.Errorf("Position %d: expected %s, got %s", i, title, filtered[i].Title)
		}
	}
}

func TestFilterer_DefaultBoundsKeepDatedRecords(t *testing.T) {
	filterer := NewFilterer()
	records := []domain.VideoRecord{
		{Title: "A", PublishedAt: day(2023, 6, 1), Link: "https://x/1"},
		{Title: "B", Link: "https://x/2"},
		{Title: "C", PublishedAt: day(2024, 6, 1), Link: "https://x/3"},
	}

	filtered := filterer.Filter(records, domain.FilterQuery{})
	if len(filtered) != 2 {
		t.Fatalf("Expected 2 dated records with default bounds, got %d", len(filtered))
	}
	for _, record := range filtered {
		if record.PublishedAt == nil {
			t.Errorf("Undated record %s should be dropped by the date predicate", record.Link)
		}
	}

	// Only one bound supplied: the other falls back to the catalog maximum.
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := filterer.Filter(records, domain.FilterQuery{From: &from})
	if len(later) != 1 || later[0].Title != "C" {
		t.Errorf("Expected only C after 2024-01-01, got %v", later)
	}
}

func TestFilterer_PredicatesCombine(t *testing.T) {
	filterer := NewFilterer()
	records := []domain.VideoRecord{
		{Title: "Cat video", ChannelName: "Pets", PublishedAt: day(2024, 2, 1), Link: "https://x/1"},
		{Title: "Cat video", ChannelName: "News", PublishedAt: day(2024, 2, 1), Link: "https://x/2"},
		{Title: "Cat video", ChannelName: "Pets", PublishedAt: day(2024, 3, 1), Link: "https://x/3"},
		{Title: "Dog video", ChannelName: "Pets", PublishedAt: day(2024, 2, 1), Link: "https://x/4"},
	}

	to := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	filtered := filterer.Filter(records, domain.FilterQuery{SearchText: "cat", Channel: "Pets", To: &to})
	if len(filtered) != 1 || filtered[0].Link != "https://x/1" {
		t.Errorf("Expected only https://x/1, got %v", filtered)
	}
}

func TestChannels_UsesUnfilteredCatalog(t *testing.T) {
	records := []domain.VideoRecord{
		{ChannelName: "Zeta", Link: "1"},
		{ChannelName: "Alpha", Link: "2"},
		{ChannelName: "", Link: "3"},
		{ChannelName: "Zeta", Link: "4"},
		{ChannelName: "Mid", Link: "5"},
	}

	channels := Channels(records)
	want := []string{"Alpha", "Mid", "Zeta"}
	if len(channels) != len(want) {
		t.Fatalf("Expected %v, got %v", want, channels)
	}
	for i := range want {
		if channels[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], channels[i])
		}
	}
}

func TestDateBounds(t *testing.T) {
	_, _, ok := DateBounds([]domain.VideoRecord{{Link: "1"}})
	if ok {
		t.Error("Expected no bounds for undated catalog")
	}

	minDay, maxDay, ok := DateBounds([]domain.VideoRecord{
		{PublishedAt: day(2024, 5, 3)},
		{PublishedAt: day(2023, 1, 9)},
		{},
		{PublishedAt: day(2024, 12, 30)},
	})
	if !ok {
		t.Fatal("Expected bounds")
	}
	if !minDay.Equal(time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected min day %v", minDay)
	}
	if !maxDay.Equal(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected max day %v", maxDay)
	}
}

func TestTotalPages(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 10: 1, 11: 2, 20: 2, 21: 3, 25: 3}
	for count, want := range cases {
		if got := TotalPages(count, 10); got != want {
			t.Errorf("TotalPages(%d) = %d, expected %d", count, got, want)
		}
	}
}
