package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/lysyi3m/quickwatch/app/domain"
)

const DefaultPageSize = 10

type Filterer struct {
	pageSize int
}

func NewFilterer() *Filterer {
	return &Filterer{pageSize: DefaultPageSize}
}

// Run applies search, channel and date predicates and returns the requested
// page. Out of range page numbers are clamped; ordering is source order.
func (f *Filterer) Run(records []domain.VideoRecord, query domain.FilterQuery, pageNumber int) domain.Page {
	filtered := f.Filter(records, query)
	return f.paginate(filtered, pageNumber)
}

// Filter returns every record passing all three predicates, in source order.
func (f *Filterer) Filter(records []domain.VideoRecord, query domain.FilterQuery) []domain.VideoRecord {
	from, to, dated := f.effectiveBounds(records, query)

	filtered := make([]domain.VideoRecord, 0, len(records))
	for _, record := range records {
		if !f.matchesSearch(record, query.SearchText) {
			continue
		}
		if !f.matchesChannel(record, query.Channel) {
			continue
		}
		if !dated || !f.matchesDate(record, from, to) {
			continue
		}
		filtered = append(filtered, record)
	}

	return filtered
}

func (f *Filterer) paginate(filtered []domain.VideoRecord, pageNumber int) domain.Page {
	totalPages := TotalPages(len(filtered), f.pageSize)
	pageNumber = max(1, min(pageNumber, totalPages))

	start := min((pageNumber-1)*f.pageSize, len(filtered))
	end := min(start+f.pageSize, len(filtered))

	items := make([]domain.VideoRecord, end-start)
	copy(items, filtered[start:end])

	return domain.Page{
		Items:      items,
		PageNumber: pageNumber,
		PageSize:   f.pageSize,
		TotalPages: totalPages,
		TotalCount: len(filtered),
	}
}

// TotalPages is max(ceil(count/pageSize), 1).
func TotalPages(count, pageSize int) int {
	if count <= 0 {
		return 1
	}
	return (count-1)/pageSize + 1
}

func (f *Filterer) matchesSearch(record domain.VideoRecord, search string) bool {
	if search == "" {
		return true
	}
	if record.Title == "" {
		return false
	}
	return f.matchesFilter(record.Title, search)
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) matchesChannel(record domain.VideoRecord, channel string) bool {
	if channel == "" || channel == domain.AllChannels {
		return true
	}
	return record.ChannelName == channel
}

func (f *Filterer) matchesDate(record domain.VideoRecord, from, to time.Time) bool {
	day, ok := record.PublishDay()
	if !ok {
		return false
	}
	return !day.Before(from) && !day.After(to)
}

// effectiveBounds fills open ends of the query range with the catalog's
// own min/max day. dated is false when no record carries a parsed date.
func (f *Filterer) effectiveBounds(records []domain.VideoRecord, query domain.FilterQuery) (time.Time, time.Time, bool) {
	minDay, maxDay, dated := DateBounds(records)
	if !dated {
		return time.Time{}, time.Time{}, false
	}
	if query.From != nil {
		minDay = domain.Day(*query.From)
	}
	if query.To != nil {
		maxDay = domain.Day(*query.To)
	}
	return minDay, maxDay, true
}

// DateBounds returns the earliest and latest publish day in records.
func DateBounds(records []domain.VideoRecord) (time.Time, time.Time, bool) {
	var minDay, maxDay time.Time
	found := false
	for _, record := range records {
		day, ok := record.PublishDay()
		if !ok {
			continue
		}
		if !found || day.Before(minDay) {
			minDay = day
		}
		if !found || day.After(maxDay) {
			maxDay = day
		}
		found = true
	}
	return minDay, maxDay, found
}

// Channels lists the distinct non-empty channel names of the unfiltered catalog, sorted.
func Channels(records []domain.VideoRecord) []string {
	seen := make(map[string]struct{})
	channels := make([]string, 0)
	for _, record := range records {
		if record.ChannelName == "" {
			continue
		}
		if _, ok := seen[record.ChannelName]; ok {
			continue
		}
		seen[record.ChannelName] = struct{}{}
		channels = append(channels, record.ChannelName)
	}
	slices.Sort(channels)
	return channels
}
