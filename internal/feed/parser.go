package feed

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/csams/podcast-player/internal/models"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Channel fields without a namespace match both plain RSS and itunes: elements,
// so <image> and <itunes:image> land in the same slice.
type Channel struct {
	Title       string   `xml:"title"`
	Description string   `xml:"description"`
	Link        string   `xml:"link"`
	Authors     []string `xml:"author"`
	Images      []Image  `xml:"image"`
	Items       []Item   `xml:"item"`
}

// Image covers both <image><url>..</url></image> and <itunes:image href=".."/>
type Image struct {
	URL  string `xml:"url"`
	Href string `xml:"href,attr"`
}

type Item struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Authors     []string  `xml:"author"`
	Images      []Image   `xml:"image"`
	Enclosure   Enclosure `xml:"enclosure"`
	PubDate     string    `xml:"pubDate"`
	Duration    string    `xml:"duration"`
}

type Enclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length string `xml:"length,attr"`
}

// Fetcher downloads and parses RSS feeds, retrying transient failures
type Fetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// FetcherOptions tunes the retrying HTTP client
type FetcherOptions struct {
	RetryMax     int
	Timeout      time.Duration
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       zerolog.Logger
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.Logger = nil
	// Hand the last response back so the status check below reports the HTTP code
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Timeout > 0 {
		retryClient.HTTPClient.Timeout = opts.Timeout
	}

	return &Fetcher{
		client: retryClient.StandardClient(),
		logger: opts.Logger,
	}
}

// Fetch downloads the feed at url and returns its episodes in feed order
func (f *Fetcher) Fetch(ctx context.Context, url string) (*models.Playlist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build feed request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("failed to fetch feed: HTTP %d", resp.StatusCode)
	}

	playlist, err := Parse(resp.Body, url)
	if err != nil {
		return nil, err
	}

	f.logger.Info().Str("Method", "Fetch").Str("URL", url).Int("Episodes", len(playlist.Episodes)).Msg("feed loaded")
	return playlist, nil
}

// Parse reads an RSS document. sourceURL seeds episode IDs.
func Parse(r io.Reader, sourceURL string) (*models.Playlist, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read feed")
	}

	var rss RSS
	if err := xml.Unmarshal(data, &rss); err != nil {
		return nil, errors.Wrap(err, "failed to parse RSS")
	}

	channelImage := firstImage(rss.Channel.Images)
	channelAuthor := firstNonEmpty(rss.Channel.Authors)

	playlist := &models.Playlist{
		Title:    strings.TrimSpace(rss.Channel.Title),
		Source:   sourceURL,
		Episodes: make([]*models.Episode, 0, len(rss.Channel.Items)),
	}

	for _, item := range rss.Channel.Items {
		// Nothing to play without an enclosure
		if item.Enclosure.URL == "" {
			continue
		}

		members := firstNonEmpty(item.Authors)
		if members == "" {
			members = channelAuthor
		}
		thumbnail := firstImage(item.Images)
		if thumbnail == "" {
			thumbnail = channelImage
		}

		episode := &models.Episode{
			Title:       strings.TrimSpace(item.Title),
			Members:     members,
			Thumbnail:   thumbnail,
			URL:         item.Enclosure.URL,
			Duration:    parseDuration(item.Duration),
			Description: item.Description,
		}

		if pubDate, err := parseRFC2822Date(item.PubDate); err == nil {
			episode.PublishDate = pubDate
		}

		episode.GenerateID(sourceURL)

		playlist.Episodes = append(playlist.Episodes, episode)
	}

	return playlist, nil
}

func firstImage(images []Image) string {
	for _, img := range images {
		if img.Href != "" {
			return img.Href
		}
		if u := strings.TrimSpace(img.URL); u != "" {
			return u
		}
	}
	return ""
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseRFC2822Date(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.Errorf("unable to parse date: %s", dateStr)
}

// parseDuration converts seconds, MM:SS or HH:MM:SS into whole seconds
func parseDuration(duration string) int {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0
	}

	// Try to parse as seconds first (most common case)
	if seconds, err := strconv.Atoi(duration); err == nil {
		if seconds < 0 {
			return 0
		}
		return seconds
	}

	if strings.Contains(duration, ":") {
		return parseTimeFormatDuration(duration)
	}

	return 0
}

// parseTimeFormatDuration parses HH:MM:SS or MM:SS format into seconds
func parseTimeFormatDuration(timeStr string) int {
	parts := strings.Split(timeStr, ":")

	var hours, minutes, seconds int
	var err error

	switch len(parts) {
	case 2: // MM:SS format
		if minutes, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		if seconds, err = strconv.Atoi(parts[1]); err != nil {
			return 0
		}
	case 3: // HH:MM:SS format
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0
		}
		if seconds, err = strconv.Atoi(parts[2]); err != nil {
			return 0
		}
	default:
		return 0
	}

	return hours*3600 + minutes*60 + seconds
}
