package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Test Podcast</title>
    <description>A test podcast for unit testing</description>
    <itunes:author>The Hosts</itunes:author>
    <image>
      <url>https://example.com/image.jpg</url>
    </image>
    <item>
      <title>Episode 1</title>
      <description>First test episode</description>
      <itunes:author>Alice, Bob</itunes:author>
      <itunes:image href="https://example.com/ep1.jpg"/>
      <enclosure url="https://example.com/episode1.mp3" type="audio/mpeg" length="1024"/>
      <pubDate>Sun, 15 Oct 2023 12:00:00 GMT</pubDate>
      <itunes:duration>30:00</itunes:duration>
    </item>
    <item>
      <title>Episode 2</title>
      <description>Second test episode</description>
      <enclosure url="https://example.com/episode2.mp3" type="audio/mpeg" length="2048"/>
      <pubDate>Mon, 16 Oct 2023 12:00:00 GMT</pubDate>
      <itunes:duration>1:02:03</itunes:duration>
    </item>
    <item>
      <title>Announcement without audio</title>
    </item>
  </channel>
</rss>`

func newTestFetcher() *Fetcher {
	return NewFetcher(FetcherOptions{
		RetryMax:     2,
		Timeout:      5 * time.Second,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
		Logger:       zerolog.Nop(),
	})
}

func serveFeed(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(content))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch_Success(t *testing.T) {
	server := serveFeed(t, testFeed)

	playlist, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Failed to fetch feed: %v", err)
	}

	if playlist.Title != "Test Podcast" {
		t.Errorf("Expected title 'Test Podcast', got '%s'", playlist.Title)
	}
	if playlist.Source != server.URL {
		t.Errorf("Expected source '%s', got '%s'", server.URL, playlist.Source)
	}

	// The item without an enclosure is skipped
	if len(playlist.Episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(playlist.Episodes))
	}

	episode1 := playlist.Episodes[0]
	if episode1.Title != "Episode 1" {
		t.Errorf("Expected title 'Episode 1', got '%s'", episode1.Title)
	}
	if episode1.Members != "Alice, Bob" {
		t.Errorf("Expected members 'Alice, Bob', got '%s'", episode1.Members)
	}
	if episode1.Thumbnail != "https://example.com/ep1.jpg" {
		t.Errorf("Expected item image, got '%s'", episode1.Thumbnail)
	}
	if episode1.URL != "https://example.com/episode1.mp3" {
		t.Errorf("Expected enclosure URL, got '%s'", episode1.URL)
	}
	if episode1.Duration != 1800 {
		t.Errorf("Expected duration 1800, got %d", episode1.Duration)
	}
	if len(episode1.ID) != 16 {
		t.Errorf("Expected ID length 16, got %d", len(episode1.ID))
	}
	if episode1.PublishDate.IsZero() {
		t.Error("Expected publish date to be parsed")
	}

	// Channel author and image fill in for the second episode
	episode2 := playlist.Episodes[1]
	if episode2.Members != "The Hosts" {
		t.Errorf("Expected channel author fallback, got '%s'", episode2.Members)
	}
	if episode2.Thumbnail != "https://example.com/image.jpg" {
		t.Errorf("Expected channel image fallback, got '%s'", episode2.Thumbnail)
	}
	if episode2.Duration != 3723 {
		t.Errorf("Expected duration 3723, got %d", episode2.Duration)
	}

	if episode1.ID == episode2.ID {
		t.Error("Expected different IDs for different episodes")
	}
}

func TestFetch_IDConsistency(t *testing.T) {
	server := serveFeed(t, testFeed)
	fetcher := newTestFetcher()

	first, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Failed to fetch feed first time: %v", err)
	}
	second, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Failed to fetch feed second time: %v", err)
	}

	for i := range first.Episodes {
		if first.Episodes[i].ID != second.Episodes[i].ID {
			t.Errorf("Expected consistent ID for episode %d", i)
		}
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	playlist, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if len(playlist.Episodes) != 2 {
		t.Errorf("Expected 2 episodes, got %d", len(playlist.Episodes))
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 requests, got %d", calls)
	}
}

func TestFetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "failed to fetch feed: HTTP 500") {
		t.Errorf("Expected HTTP 500 error after retries, got %v", err)
	}
}

func TestFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("Expected HTTP 404 error, got %v", err)
	}
}

func TestFetch_CanceledContext(t *testing.T) {
	server := serveFeed(t, testFeed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestFetcher().Fetch(ctx, server.URL); err == nil {
		t.Error("Expected error for canceled context")
	}
}

func TestParse_InvalidXML(t *testing.T) {
	invalidXML := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Invalid XML Podcast</title>
    <description>This XML is malformed
  </channel>
</rss>`

	_, err := Parse(strings.NewReader(invalidXML), "file://invalid.xml")
	if err == nil {
		t.Fatal("Expected error for invalid XML")
	}
	if !strings.Contains(err.Error(), "failed to parse RSS") {
		t.Errorf("Expected 'failed to parse RSS' error, got: %v", err)
	}
}

func TestParse_SpecialCharacters(t *testing.T) {
	rssContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Special Characters &amp; HTML Entities</title>
    <item>
      <title>Episode with &quot;Quotes&quot; &amp; Special Chars</title>
      <enclosure url="https://example.com/special.mp3" type="audio/mpeg" length="1024"/>
    </item>
  </channel>
</rss>`

	playlist, err := Parse(strings.NewReader(rssContent), "https://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to parse feed with special characters: %v", err)
	}

	if playlist.Title != "Special Characters & HTML Entities" {
		t.Errorf("Unexpected title '%s'", playlist.Title)
	}
	if playlist.Episodes[0].Title != `Episode with "Quotes" & Special Chars` {
		t.Errorf("Unexpected episode title '%s'", playlist.Episodes[0].Title)
	}
}

func TestParseRFC2822Date(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Time
		hasError bool
	}{
		{"Sun, 15 Oct 2023 12:00:00 +0000", time.Date(2023, 10, 15, 12, 0, 0, 0, time.UTC), false},
		{"Mon, 2 Oct 2023 08:30:00 +0000", time.Date(2023, 10, 2, 8, 30, 0, 0, time.UTC), false},
		{"  Sun, 15 Oct 2023 12:00:00 +0000  ", time.Date(2023, 10, 15, 12, 0, 0, 0, time.UTC), false},
		{"Invalid date format", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tc := range testCases {
		got, err := parseRFC2822Date(tc.input)
		if tc.hasError {
			if err == nil {
				t.Errorf("Expected error for %q", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", tc.input, err)
			continue
		}
		if !got.Equal(tc.expected) {
			t.Errorf("parseRFC2822Date(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseDuration(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"1800", 1800},
		{"30:00", 1800},
		{"01:05", 65},
		{"1:02:03", 3723},
		{"-5", 0},
		{"1:2:3:4", 0},
		{"abc", 0},
		{"aa:10", 0},
	}

	for _, tc := range testCases {
		if got := parseDuration(tc.input); got != tc.expected {
			t.Errorf("parseDuration(%q) = %d, expected %d", tc.input, got, tc.expected)
		}
	}
}
