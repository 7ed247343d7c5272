package streamable

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/mediasaver/internal/database/cache"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/reddit"
	"github.com/ruizlenato/mediasaver/internal/utils"
)

const cacheLifetime = time.Hour

var APIBase = "https://api.streamable.com/videos"

var ErrNoMP4 = errors.New("no mp4 file found in streamable response")

func Resolve(post *reddit.Post) (*downloader.Resolution, error) {
	parsed, err := url.Parse(post.URL())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", downloader.ErrUnsupportedURL, post.Data.URL)
	}
	id := strings.Trim(parsed.Path, "/")
	if id == "" {
		return nil, fmt.Errorf("%w: %s", downloader.ErrUnsupportedURL, post.Data.URL)
	}

	video, err := lookup(id)
	if err != nil {
		return nil, err
	}

	file, ok := video.Files[downloader.MP4]
	if !ok || file.URL == "" {
		return nil, ErrNoMP4
	}

	link := file.URL
	if strings.HasPrefix(link, "//") {
		link = "https:" + link
	}

	return downloader.Single(downloader.NewTask(post, link, downloader.MP4, 0)), nil
}

func lookup(id string) (*VideoResponse, error) {
	cacheKey := "streamable:" + id
	if cached, err := cache.GetCache(cacheKey); err == nil {
		var video VideoResponse
		if err := json.Unmarshal([]byte(cached), &video); err == nil {
			return &video, nil
		}
	}

	request, response, err := utils.DefaultRetryCaller.Request(fmt.Sprintf("%s/%s", APIBase, id), utils.RequestParams{
		Method:  fasthttp.MethodGet,
		Headers: downloader.GenericHeaders,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup streamable %s: %w", id, err)
	}
	defer utils.ReleaseRequestResources(request, response)

	if response.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("lookup streamable %s: unexpected status %d", id, response.StatusCode())
	}

	body := response.Body()
	var video VideoResponse
	if err := json.Unmarshal(body, &video); err != nil {
		return nil, fmt.Errorf("decode streamable %s: %w", id, err)
	}

	if err := cache.SetCache(cacheKey, string(body), cacheLifetime); err != nil && !errors.Is(err, cache.ErrUnavailable) {
		slog.Warn("Could not cache streamable response",
			"ID", id,
			"Error", err.Error())
	}

	return &video, nil
}
