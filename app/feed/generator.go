package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/lysyi3m/quickwatch/app/cfg"
	"github.com/lysyi3m/quickwatch/app/domain"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders the curated live feed as RSS 2.0, keeping record order.
func (g *Generator) Run(records []domain.VideoRecord) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", "QuickWatch", 4)
	g.writeElement(&buf, "link", g.baseURL(), 4)
	g.writeElement(&buf, "description", "Live feed with not relevant videos removed", 4)

	selfLink := g.baseURL() + "/feed.xml"
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	for _, record := range records {
		if record.PublishedAt != nil {
			lastBuildDate = *record.PublishedAt
			break
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("QuickWatch/%s", cfg.Get().Version), 4)

	for _, record := range records {
		g.writeItem(&buf, record)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) baseURL() string {
	if cfg.Get().BaseUrl != "" {
		return cfg.Get().BaseUrl
	}
	return fmt.Sprintf("http://localhost:%s", cfg.Get().Port)
}

func (g *Generator) writeItem(buf *bytes.Buffer, record domain.VideoRecord) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(record.Link)))
	xml.EscapeText(buf, []byte(record.Link))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", record.Title, 6)
	g.writeElement(buf, "link", record.Link, 6)

	if record.PublishedAt != nil {
		g.writeElement(buf, "pubDate", record.PublishedAt.Format(time.RFC1123Z), 6)
	}

	if record.ChannelName != "" {
		g.writeElement(buf, "category", record.ChannelName, 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}
