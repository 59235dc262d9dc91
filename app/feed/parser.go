package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS or Atom document into video records. Entries without
// a link are dropped since the link is the record's identity.
func (p *Parser) Run(data []byte) ([]domain.VideoRecord, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	channel := p.feedChannel(feed)

	records := make([]domain.VideoRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		record := p.normalizeItem(item, channel)
		if record.Link == "" {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, channel string) domain.VideoRecord {
	record := domain.VideoRecord{
		ID:          cmp.Or(p.videoID(item), item.GUID),
		Title:       strings.TrimSpace(item.Title),
		ChannelName: cmp.Or(p.firstAuthor(item), channel),
		Link:        strings.TrimSpace(item.Link),
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published != nil {
		t := published.UTC()
		record.PublishedAt = &t
	}

	return record
}

// videoID reads <yt:videoId>, present on YouTube channel feeds.
func (p *Parser) videoID(item *gofeed.Item) string {
	yt, ok := item.Extensions["yt"]
	if !ok {
		return ""
	}
	for _, ext := range yt["videoId"] {
		if v := strings.TrimSpace(ext.Value); v != "" {
			return v
		}
	}
	return ""
}

func (p *Parser) firstAuthor(item *gofeed.Item) string {
	for _, author := range item.Authors {
		if author != nil {
			if name := strings.TrimSpace(author.Name); name != "" {
				return name
			}
		}
	}
	if item.Author != nil {
		return strings.TrimSpace(item.Author.Name)
	}
	return ""
}

func (p *Parser) feedChannel(feed *gofeed.Feed) string {
	for _, author := range feed.Authors {
		if author != nil {
			if name := strings.TrimSpace(author.Name); name != "" {
				return name
			}
		}
	}
	return strings.TrimSpace(feed.Title)
}
