package exclusion

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lysyi3m/quickwatch/app/catalog"
	"github.com/lysyi3m/quickwatch/app/domain"
)

// storedRecord accepts the loosely typed objects older dashboards wrote:
// numeric ids and publish dates in any common spelling.
type storedRecord struct {
	ID          any    `json:"id,omitempty"`
	Title       string `json:"title"`
	ChannelName string `json:"channel_name"`
	PublishDate any    `json:"publish_date"`
	Link        string `json:"link"`
}

// decodeRecords also returns each record's original JSON object keyed by
// link, so a rewrite can keep keys and spellings it does not model.
func decodeRecords(data []byte) ([]domain.VideoRecord, map[string]json.RawMessage, error) {
	var objects []json.RawMessage
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, nil, err
	}

	records := make([]domain.VideoRecord, 0, len(objects))
	originals := make(map[string]json.RawMessage, len(objects))
	for _, object := range objects {
		var s storedRecord
		if err := json.Unmarshal(object, &s); err != nil {
			return nil, nil, err
		}
		if s.Link == "" {
			continue
		}
		record := domain.VideoRecord{
			ID:          scalarString(s.ID),
			Title:       s.Title,
			ChannelName: s.ChannelName,
			Link:        s.Link,
		}
		if raw := scalarString(s.PublishDate); raw != "" {
			if published, ok := catalog.ParseDate(raw); ok {
				record.PublishedAt = &published
			}
		}
		records = append(records, record)
		if _, seen := originals[s.Link]; !seen {
			originals[s.Link] = object
		}
	}

	return records, originals, nil
}

// encodeRecords writes records in order. A record with an entry in
// originals is written back as it was read.
func encodeRecords(records []domain.VideoRecord, originals map[string]json.RawMessage) ([]byte, error) {
	objects := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		if original, ok := originals[record.Link]; ok {
			objects = append(objects, original)
			continue
		}
		data, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		objects = append(objects, data)
	}
	return json.MarshalIndent(objects, "", "  ")
}

func scalarString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}
