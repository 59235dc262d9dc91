package exclusion

import (
	"context"
	"slices"

	"github.com/lysyi3m/quickwatch/app/domain"
)

// Store persists the set of links marked as not relevant. Load and Save
// always move the full set; there is no incremental API.
//
// Save is a compare-and-swap: it fails with domain.ErrConflict when the
// stored set changed after the snapshot was loaded.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// Snapshot is an immutable view of the exclusion set as read at one version.
type Snapshot struct {
	records []domain.VideoRecord
	index   map[string]struct{}
	version string
}

// NewSnapshot indexes records by link. Later duplicates of a link are dropped.
func NewSnapshot(records []domain.VideoRecord, version string) *Snapshot {
	s := &Snapshot{
		records: make([]domain.VideoRecord, 0, len(records)),
		index:   make(map[string]struct{}, len(records)),
		version: version,
	}
	for _, record := range records {
		if _, ok := s.index[record.Link]; ok {
			continue
		}
		s.index[record.Link] = struct{}{}
		s.records = append(s.records, record)
	}
	return s
}

func (s *Snapshot) Contains(link string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[link]
	return ok
}

// Records returns the excluded records in the order they were added.
func (s *Snapshot) Records() []domain.VideoRecord {
	if s == nil {
		return []domain.VideoRecord{}
	}
	return slices.Clone(s.records)
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Version identifies the stored state this snapshot was read from.
// An empty version means nothing was stored yet.
func (s *Snapshot) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// With returns a snapshot that also excludes record. The receiver is not
// modified and the read version is carried over for the CAS in Save.
func (s *Snapshot) With(record domain.VideoRecord) *Snapshot {
	if s.Contains(record.Link) {
		return s
	}
	records := append(s.Records(), record)
	return NewSnapshot(records, s.Version())
}
