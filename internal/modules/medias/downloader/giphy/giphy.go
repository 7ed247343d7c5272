package giphy

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/reddit"
	"github.com/ruizlenato/mediasaver/internal/utils"
)

var mediaHosts = []string{
	"i.giphy.com",
	"media.giphy.com",
	"media0.giphy.com",
	"media1.giphy.com",
	"media2.giphy.com",
	"media3.giphy.com",
	"media4.giphy.com",
}

// Resolve keeps direct media links and rewrites giphy page links to the
// gif they embed.
func Resolve(post *reddit.Post) (*downloader.Resolution, error) {
	link := post.URL()
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %s", downloader.ErrUnsupportedURL, post.Data.URL)
	}

	extension := utils.Extension(parsed.Path)
	if slices.Contains(mediaHosts, parsed.Host) &&
		slices.Contains([]string{downloader.GIF, downloader.MP4, downloader.GIFV}, extension) {
		return downloader.Single(downloader.NewTask(post, link, extension, 0)), nil
	}

	segment := utils.LastSegment(parsed.Path)
	if idx := strings.LastIndexByte(segment, '.'); idx >= 0 {
		segment = segment[:idx]
	}
	id := segment[strings.LastIndexByte(segment, '-')+1:]
	if id == "" {
		return nil, fmt.Errorf("%w: %s", downloader.ErrUnsupportedURL, link)
	}

	media := fmt.Sprintf("https://media.giphy.com/media/%s/giphy.gif", id)
	return downloader.Single(downloader.NewTask(post, media, downloader.GIF, 0)), nil
}
