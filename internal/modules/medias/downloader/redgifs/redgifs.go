package redgifs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/mediasaver/internal/database/cache"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/reddit"
	"github.com/ruizlenato/mediasaver/internal/utils"
)

const (
	tokenCacheKey = "redgifs-token"
	tokenLifetime = 20 * time.Hour
)

var APIBase = "https://api.redgifs.com/v2"

var (
	ErrMissingToken = errors.New("no redgifs token available")
	ErrNoMedia      = errors.New("redgifs returned no media url")
	ErrRejected     = errors.New("redgifs rejected the token")
)

// Token returns a temporary API token, reusing the cached one while it is
// still valid.
func Token() (string, error) {
	if token, err := cache.GetCache(tokenCacheKey); err == nil && token != "" {
		slog.Debug("Using cached redgifs token")
		return token, nil
	}

	var data TokenResponse
	if err := getJSON(APIBase+"/auth/temporary", nil, &data); err != nil {
		return "", fmt.Errorf("request redgifs token: %w", err)
	}
	if data.Token == "" {
		return "", ErrMissingToken
	}

	if err := cache.SetCache(tokenCacheKey, data.Token, tokenLifetime); err != nil && !errors.Is(err, cache.ErrUnavailable) {
		slog.Warn("Could not cache redgifs token",
			"Error", err.Error())
	}
	return data.Token, nil
}

// Resolve looks up the HD rendition of a redgifs post. Tokens are bound to
// the client address, so a rejected one is dropped from the cache and a
// fresh token is tried once.
func Resolve(post *reddit.Post, token string) (*downloader.Resolution, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	id := strings.ToLower(utils.LastSegment(post.URL()))
	if id == "" {
		return nil, fmt.Errorf("%w: %s", downloader.ErrUnsupportedURL, post.Data.URL)
	}

	data, err := lookup(id, token)
	if errors.Is(err, ErrRejected) {
		slog.Warn("Redgifs rejected token, requesting a new one",
			"ID", id)
		if err := cache.DelCache(tokenCacheKey); err != nil && !errors.Is(err, cache.ErrUnavailable) {
			slog.Warn("Could not drop cached redgifs token",
				"Error", err.Error())
		}

		fresh, tokenErr := Token()
		if tokenErr != nil {
			return nil, fmt.Errorf("refresh redgifs token: %w", tokenErr)
		}
		data, err = lookup(id, fresh)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup redgifs %s: %w", id, err)
	}

	url := data.Gif.URLs.HD
	if url == "" {
		url = data.Gif.URLs.SD
	}
	if url == "" {
		return nil, ErrNoMedia
	}

	return downloader.Single(downloader.NewTask(post, url, downloader.MP4, 0)), nil
}

func lookup(id, token string) (*GifResponse, error) {
	var data GifResponse
	err := getJSON(fmt.Sprintf("%s/gifs/%s", APIBase, id), map[string]string{
		"Authorization": "Bearer " + token,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func getJSON(url string, headers map[string]string, target any) error {
	request, response, err := utils.DefaultRetryCaller.Request(url, utils.RequestParams{
		Method:  fasthttp.MethodGet,
		Headers: headers,
	})
	if err != nil {
		return err
	}
	defer utils.ReleaseRequestResources(request, response)

	switch response.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusUnauthorized, fasthttp.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrRejected, response.StatusCode())
	default:
		return fmt.Errorf("unexpected status %d", response.StatusCode())
	}

	return json.Unmarshal(response.Body(), target)
}
