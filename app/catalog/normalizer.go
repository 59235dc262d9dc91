package catalog

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/lysyi3m/quickwatch/app/domain"
)

// Column names after trimming and lowercasing.
const (
	ColumnTitle       = "title"
	ColumnChannelName = "channel_name"
	ColumnPublishDate = "publish_date"
	ColumnVideoLink   = "video_link"
	ColumnLink        = "link"
	ColumnID          = "id"
	ColumnVideoID     = "video_id"
)

// Report summarises a normalization run. Issues counts skipped rows and
// soft failures per kind; none of them abort the run.
type Report struct {
	Rows    int
	Kept    int
	Skipped int
	Issues  map[domain.IngestKind]int
}

func (r *Report) note(kind domain.IngestKind) {
	if r.Issues == nil {
		r.Issues = make(map[domain.IngestKind]int)
	}
	r.Issues[kind]++
}

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Run parses a delimited table into records in source order.
func (n *Normalizer) Run(source string, data []byte) ([]domain.VideoRecord, Report, error) {
	if len(data) == 0 {
		return nil, Report{}, &domain.IngestError{Source: source, Kind: domain.IngestUnreadable, Detail: "empty table"}
	}

	text, err := decode(source, data)
	if err != nil {
		return nil, Report{}, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, Report{}, &domain.IngestError{Source: source, Kind: domain.IngestUnreadable, Detail: "header", Err: err}
	}

	cols, err := resolveColumns(source, header)
	if err != nil {
		return nil, Report{}, err
	}

	var report Report
	records := make([]domain.VideoRecord, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		report.Rows++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Skipped++
				report.note(domain.IngestMalformedRow)
				slog.Debug("Skipping malformed row", "source", source, "line", parseErr.Line, "error", parseErr.Err)
				continue
			}
			return nil, report, &domain.IngestError{Source: source, Kind: domain.IngestUnreadable, Err: err}
		}

		if record, ok := n.normalizeRow(cols, len(header), row, &report); ok {
			records = append(records, record)
		}
	}

	report.Kept = len(records)
	n.logReport(source, report)

	return records, report, nil
}

// Rows normalizes already split tabular input, such as spreadsheet values.
// Short rows are padded, matching how spreadsheets drop trailing blanks.
func (n *Normalizer) Rows(source string, header []string, rows [][]string) ([]domain.VideoRecord, Report, error) {
	cols, err := resolveColumns(source, header)
	if err != nil {
		return nil, Report{}, err
	}

	var report Report
	records := make([]domain.VideoRecord, 0, len(rows))
	for _, row := range rows {
		report.Rows++
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		if record, ok := n.normalizeRow(cols, len(header), row, &report); ok {
			records = append(records, record)
		}
	}

	report.Kept = len(records)
	n.logReport(source, report)

	return records, report, nil
}

type columns struct {
	title   int
	channel int
	date    int
	link    int
	id      int
}

func resolveColumns(source string, header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	lookup := func(names ...string) int {
		for _, name := range names {
			if i, ok := index[name]; ok {
				return i
			}
		}
		return -1
	}

	cols := columns{
		title:   lookup(ColumnTitle),
		channel: lookup(ColumnChannelName),
		date:    lookup(ColumnPublishDate),
		link:    lookup(ColumnVideoLink, ColumnLink),
		id:      lookup(ColumnID, ColumnVideoID),
	}

	required := []struct {
		name string
		idx  int
	}{
		{ColumnTitle, cols.title},
		{ColumnChannelName, cols.channel},
		{ColumnPublishDate, cols.date},
		{ColumnVideoLink, cols.link},
	}
	for _, col := range required {
		if col.idx < 0 {
			return columns{}, &domain.IngestError{Source: source, Kind: domain.IngestMissingColumn, Detail: col.name}
		}
	}

	return cols, nil
}

func (n *Normalizer) normalizeRow(cols columns, width int, row []string, report *Report) (domain.VideoRecord, bool) {
	if len(row) != width {
		report.Skipped++
		report.note(domain.IngestMalformedRow)
		return domain.VideoRecord{}, false
	}

	link := strings.TrimSpace(row[cols.link])
	if link == "" {
		report.Skipped++
		report.note(domain.IngestMissingLink)
		return domain.VideoRecord{}, false
	}

	record := domain.VideoRecord{
		Title:       strings.TrimSpace(row[cols.title]),
		ChannelName: strings.TrimSpace(row[cols.channel]),
		Link:        link,
	}
	if cols.id >= 0 {
		record.ID = strings.TrimSpace(row[cols.id])
	}

	raw := strings.TrimSpace(row[cols.date])
	if published, ok := ParseDate(raw); ok {
		record.PublishedAt = &published
	} else if raw != "" {
		report.note(domain.IngestUnparseableDate)
	}

	return record, true
}

// ParseDate accepts the date spellings seen in exports and feeds.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (n *Normalizer) logReport(source string, report Report) {
	slog.Debug("Catalog normalized",
		"source", source,
		"rows", report.Rows,
		"kept", report.Kept,
		"skipped", report.Skipped,
		"undated", report.Issues[domain.IngestUnparseableDate])
}
