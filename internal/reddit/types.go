package reddit

import (
	"net/url"
	"strings"
)

type Listing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

type ListingData struct {
	After    string `json:"after"`
	Before   string `json:"before"`
	Children []Post `json:"children"`
	Dist     int    `json:"dist"`
}

type Post struct {
	Kind string   `json:"kind"`
	Data PostData `json:"data"`
}

type PostData struct {
	Subreddit     string                   `json:"subreddit"`
	ID            string                   `json:"id"`
	Name          string                   `json:"name"`
	Title         string                   `json:"title"`
	URL           string                   `json:"url"`
	Permalink     string                   `json:"permalink"`
	Score         int64                    `json:"score"`
	IsSelf        bool                     `json:"is_self"`
	IsVideo       bool                     `json:"is_video"`
	MediaMetadata map[string]MediaMetadata `json:"media_metadata"`
	GalleryData   *GalleryData             `json:"gallery_data"`
	Media         *Media                   `json:"media"`
}

type MediaMetadata struct {
	Status string `json:"status"`
	E      string `json:"e"`
	M      string `json:"m"`
	ID     string `json:"id"`
}

type GalleryData struct {
	Items []GalleryItem `json:"items"`
}

type GalleryItem struct {
	MediaID string `json:"media_id"`
	ID      int64  `json:"id"`
}

type Media struct {
	RedditVideo *RedditVideo `json:"reddit_video"`
}

type RedditVideo struct {
	FallbackURL string `json:"fallback_url"`
	DashURL     string `json:"dash_url"`
	HlsURL      string `json:"hls_url"`
	IsGif       bool   `json:"is_gif"`
	Height      int    `json:"height"`
	Width       int    `json:"width"`
	Duration    int    `json:"duration"`
}

// URL returns the post link without query, fragment or trailing slash.
// It returns an empty string if the post has no link or it cannot be parsed.
func (p *Post) URL() string {
	if p.Data.URL == "" {
		return ""
	}

	parsed, err := url.Parse(p.Data.URL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	parsed.RawQuery = ""
	parsed.ForceQuery = false
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = ""

	return parsed.String()
}

func (p *Post) IsGallery() bool {
	return p.Data.GalleryData != nil && p.Data.MediaMetadata != nil
}

func (p *Post) RedditVideo() *RedditVideo {
	if p.Data.Media == nil {
		return nil
	}
	return p.Data.Media.RedditVideo
}
