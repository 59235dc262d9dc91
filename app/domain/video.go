package domain

import (
	"time"
)

// VideoRecord is the uniform shape of a video coming from the live feed or
// an archive table. Link is the only stable identifier.
type VideoRecord struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	ChannelName string     `json:"channel_name"`
	PublishedAt *time.Time `json:"publish_date"`
	Link        string     `json:"link"`
}

// PublishDay returns the calendar day of PublishedAt as UTC midnight.
func (r VideoRecord) PublishDay() (time.Time, bool) {
	if r.PublishedAt == nil {
		return time.Time{}, false
	}
	return Day(*r.PublishedAt), true
}

// Day truncates t to its own calendar day, expressed as UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AllChannels is the channel sentinel that disables the channel predicate.
const AllChannels = "All"

// FilterQuery combines the archive predicates. All of them AND together.
// A nil From/To falls back to the catalog's own min/max day.
type FilterQuery struct {
	SearchText string
	Channel    string
	From       *time.Time
	To         *time.Time
}

// Page is one deterministic slice of a filtered catalog.
type Page struct {
	Items      []VideoRecord `json:"items"`
	PageNumber int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	TotalCount int           `json:"total_count"`
}
