package models

import (
	"errors"
	"regexp"
)

// ErrInvalidVideoURL is returned when an external content URL does not
// contain a recognisable YouTube video id.
var ErrInvalidVideoURL = errors.New("invalid youtube url")

// Monetization describes how a content item earns money.
type Monetization string

// Monetization modes. Only MonetizationAdSupported content carries a
// post-roll ad slot on the internal player.
const (
	MonetizationAdSupported  Monetization = "adSupported"
	MonetizationSubscription Monetization = "subscription"
	MonetizationPayPerView   Monetization = "payPerView"
)

// Content is a watchable item owned by the content catalog. A session holds
// one Content and never mutates it.
type Content struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Monetization Monetization `json:"monetization"`
	Price        int64        `json:"price,omitempty"`    // Subscription or pay-per-view price in cents.
	AssetID      string       `json:"asset_id,omitempty"` // Internal asset; empty for external items.
	ExternalURL  string       `json:"external_url,omitempty"`
}

// IsExternal reports whether the content is played in an embedded external
// player rather than the internal one.
func (c Content) IsExternal() bool {
	return c.ExternalURL != ""
}

// IsAdSupported reports whether the content is ad supported.
func (c Content) IsAdSupported() bool {
	return c.Monetization == MonetizationAdSupported
}

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\s]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^?&\s]+)`),
}

// ExtractVideoID returns the YouTube video id embedded in url.
func ExtractVideoID(url string) (string, error) {
	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(url); len(m) == 2 {
			return m[1], nil
		}
	}
	return "", ErrInvalidVideoURL
}

// ExternalContent builds the Content for an embedded YouTube video. The id
// is the one reported to the ledger as the watched item ("youtube_<id>").
func ExternalContent(url string) (Content, error) {
	id, err := ExtractVideoID(url)
	if err != nil {
		return Content{}, err
	}
	return Content{
		ID:           "youtube_" + id,
		Title:        "YouTube Video",
		Monetization: MonetizationAdSupported,
		ExternalURL:  url,
	}, nil
}

// EmbedURL returns the autoplay embed URL for an external item.
func (c Content) EmbedURL() string {
	id, err := ExtractVideoID(c.ExternalURL)
	if err != nil {
		return ""
	}
	return "https://www.youtube.com/embed/" + id + "?autoplay=1"
}
