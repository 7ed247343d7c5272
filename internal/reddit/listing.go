package reddit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/mediasaver/internal/utils"
)

const pageSize = 100

var BaseURL = "https://www.reddit.com"

var ErrNoPost = errors.New("listing contains no post")

type Subreddit struct {
	Name string
}

// Filter drops posts that can't carry media or fall below the configured
// thresholds.
type Filter struct {
	Upvotes int64
	Match   *regexp.Regexp
}

func (f Filter) Keep(post Post) bool {
	if post.Data.URL == "" || post.Data.IsSelf || post.Data.Score <= f.Upvotes {
		return false
	}
	return f.Match == nil || f.Match.MatchString(post.Data.Title)
}

func (s Subreddit) feed(feed string, limit int, period, after string) (*Listing, error) {
	query := map[string]string{"limit": strconv.Itoa(limit)}
	if period != "" {
		query["t"] = period
	}
	if after != "" {
		query["after"] = after
	}

	request, response, err := utils.Request(fmt.Sprintf("%s/r/%s/%s.json", BaseURL, s.Name, feed), utils.RequestParams{
		Method:    fasthttp.MethodGet,
		Redirects: 3,
		Query:     query,
	})
	if err != nil {
		return nil, err
	}
	defer utils.ReleaseRequestResources(request, response)

	if response.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", response.StatusCode())
	}

	var listing Listing
	if err := json.Unmarshal(response.Body(), &listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &listing, nil
}

// Posts walks the feed page by page until limit posts were collected or a
// page comes back empty.
func (s Subreddit) Posts(feed string, limit int, period string) []Post {
	var (
		posts     []Post
		after     string
		page      = 1
		remaining = limit
	)

	for remaining > 0 {
		size := min(remaining, pageSize)
		slog.Debug("Fetching posts",
			"Subreddit", s.Name,
			"Feed", feed,
			"Page", page)

		listing, err := s.feed(feed, size, period, after)
		if err != nil {
			slog.Error("Failed to fetch posts",
				"Subreddit", s.Name,
				"Error", err.Error())
			break
		}
		if len(listing.Data.Children) == 0 {
			break
		}

		posts = append(posts, listing.Data.Children...)
		after = posts[len(posts)-1].Data.Name
		remaining -= size
		page++
	}

	return posts
}

// FetchPost loads a single post from its permalink. A permanent redirect
// (share links) is resolved first.
func FetchPost(link string) (*Post, error) {
	request, response, err := utils.Request(link, utils.RequestParams{Method: fasthttp.MethodHead})
	if err != nil {
		return nil, err
	}
	if response.StatusCode() == fasthttp.StatusMovedPermanently {
		if location := string(response.Header.Peek(fasthttp.HeaderLocation)); location != "" {
			link = location
		}
	}
	utils.ReleaseRequestResources(request, response)

	link, _, _ = strings.Cut(link, "?")
	link = strings.TrimSuffix(link, "/") + ".json"

	request, response, err = utils.Request(link, utils.RequestParams{
		Method:    fasthttp.MethodGet,
		Redirects: 3,
	})
	if err != nil {
		return nil, err
	}
	defer utils.ReleaseRequestResources(request, response)

	// The second listing holds the comments, which don't decode as posts.
	var listings []json.RawMessage
	if err := json.Unmarshal(response.Body(), &listings); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", link, err)
	}
	if len(listings) == 0 {
		return nil, ErrNoPost
	}

	var listing Listing
	if err := json.Unmarshal(listings[0], &listing); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", link, err)
	}
	if len(listing.Data.Children) == 0 {
		return nil, ErrNoPost
	}

	return &listing.Data.Children[0], nil
}
