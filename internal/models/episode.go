package models

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Episode is a playable audio item. The player never mutates it.
type Episode struct {
	ID          string    `json:"id" yaml:"id,omitempty"`
	Title       string    `json:"title" yaml:"title"`
	Members     string    `json:"members" yaml:"members"` // Display string of participants
	Thumbnail   string    `json:"thumbnail" yaml:"thumbnail,omitempty"`
	URL         string    `json:"url" yaml:"url"`
	Duration    int       `json:"duration" yaml:"duration"` // Seconds
	PublishDate time.Time `json:"publishDate,omitempty" yaml:"published,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// DurationOrZero returns the declared duration in seconds, or 0 for a nil episode
func (e *Episode) DurationOrZero() int {
	if e == nil || e.Duration < 0 {
		return 0
	}
	return e.Duration
}

// GenerateEpisodeID creates a unique ID for an episode based on its source URL, episode URL, and publish date
func GenerateEpisodeID(sourceURL, episodeURL string, publishDate time.Time) string {
	h := sha256.New()
	h.Write([]byte(sourceURL + episodeURL + publishDate.Format(time.RFC3339)))
	return fmt.Sprintf("%x", h.Sum(nil))[:16] // First 16 chars for filename safety
}

// GenerateID generates an ID for this episode using the source it was loaded from
func (e *Episode) GenerateID(sourceURL string) {
	e.ID = GenerateEpisodeID(sourceURL, e.URL, e.PublishDate)
}
