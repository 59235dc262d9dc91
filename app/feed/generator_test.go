package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/quickwatch/app/cfg"
	"github.com/lysyi3m/quickwatch/app/domain"
)

func setupTestConfig(t *testing.T, args ...string) {
	t.Helper()

	args = append([]string{"--live-feed-url", "https://example.com/feed.xml"}, args...)
	if _, err := cfg.LoadArgs(args); err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}
}

func TestGenerateRSS(t *testing.T) {
	setupTestConfig(t, "--base-url", "https://watch.example.com")
	generator := NewGenerator()

	published := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []domain.VideoRecord{
		{
			ID:          "abc123",
			Title:       "Cats & Dogs",
			ChannelName: "Cat Channel",
			PublishedAt: &published,
			Link:        "https://www.youtube.com/watch?v=abc123",
		},
		{
			Title: "Undated",
			Link:  "https://www.youtube.com/watch?v=def456",
		},
	}

	rss, err := generator.Run(records)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expectedElements := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<rss version="2.0"`,
		"<title>QuickWatch</title>",
		`<atom:link href="https://watch.example.com/feed.xml" rel="self" type="application/rss+xml" />`,
		"<title>Cats &amp; Dogs</title>",
		`<guid isPermaLink="true">https://www.youtube.com/watch?v=abc123</guid>`,
		"<category>Cat Channel</category>",
		"<pubDate>" + published.Format(time.RFC1123Z) + "</pubDate>",
		"<lastBuildDate>" + published.Format(time.RFC1123Z) + "</lastBuildDate>",
		"<title>Undated</title>",
	}

	for _, element := range expectedElements {
		if !strings.Contains(rss, element) {
			t.Errorf("Expected RSS to contain: %s", element)
		}
	}

	if strings.Index(rss, "abc123") > strings.Index(rss, "def456") {
		t.Error("Expected items in record order")
	}
}

func TestGenerateWithEmptyRecords(t *testing.T) {
	setupTestConfig(t, "--port", "9090")
	generator := NewGenerator()

	rss, err := generator.Run(nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(rss, "<item>") {
		t.Error("Expected no items")
	}
	if !strings.Contains(rss, "http://localhost:9090/feed.xml") {
		t.Error("Expected localhost self link when no base URL is configured")
	}
	if !strings.HasSuffix(rss, "</rss>") {
		t.Error("Expected closing rss tag")
	}
}

func TestIsURLMethod(t *testing.T) {
	generator := NewGenerator()

	tests := []struct {
		input    string
		expected bool
	}{
		{"https://example.com", true},
		{"http://example.com", true},
		{"urn:uuid:1234", false},
		{"item-1", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := generator.isURL(tt.input); got != tt.expected {
			t.Errorf("isURL(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}
